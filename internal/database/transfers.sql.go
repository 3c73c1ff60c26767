package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// transferColumns is the COPY column order used by CopyTransfers.
var transferColumns = []string{
	"import_id",
	"timestamp",
	"description",
	"source_account_id",
	"target_account_id",
	"amount",
	"currency_id",
	"attributes",
}

func (q *Queries) CopyTransfers(ctx context.Context, rows []Transfer) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"transfers"}, transferColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.ImportID,
				r.Timestamp,
				r.Description,
				r.SourceAccountID,
				r.TargetAccountID,
				r.Amount,
				r.CurrencyID,
				r.Attributes,
			}, nil
		}))
}

const countTransfersByImport = `-- name: CountTransfersByImport :one
SELECT COUNT(*) FROM transfers
WHERE import_id = $1
`

func (q *Queries) CountTransfersByImport(ctx context.Context, importID pgtype.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countTransfersByImport, importID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
