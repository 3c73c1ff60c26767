package database

import (
	"context"
)

const listStrategies = `-- name: ListStrategies :many
SELECT id, name, identification_columns, field_mappings, attribute_mappings, created_at, updated_at
FROM csv_import_strategies
ORDER BY id
`

func (q *Queries) ListStrategies(ctx context.Context) ([]CsvImportStrategy, error) {
	rows, err := q.db.Query(ctx, listStrategies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CsvImportStrategy
	for rows.Next() {
		var i CsvImportStrategy
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.IdentificationColumns,
			&i.FieldMappings,
			&i.AttributeMappings,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getStrategy = `-- name: GetStrategy :one
SELECT id, name, identification_columns, field_mappings, attribute_mappings, created_at, updated_at
FROM csv_import_strategies
WHERE id = $1
`

func (q *Queries) GetStrategy(ctx context.Context, id int64) (CsvImportStrategy, error) {
	row := q.db.QueryRow(ctx, getStrategy, id)
	var i CsvImportStrategy
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.IdentificationColumns,
		&i.FieldMappings,
		&i.AttributeMappings,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createStrategy = `-- name: CreateStrategy :one
INSERT INTO csv_import_strategies (name, identification_columns, field_mappings, attribute_mappings)
VALUES ($1, $2, $3, $4)
RETURNING id, name, identification_columns, field_mappings, attribute_mappings, created_at, updated_at
`

type CreateStrategyParams struct {
	Name                  string
	IdentificationColumns []string
	FieldMappings         []byte
	AttributeMappings     []byte
}

func (q *Queries) CreateStrategy(ctx context.Context, arg CreateStrategyParams) (CsvImportStrategy, error) {
	row := q.db.QueryRow(ctx, createStrategy,
		arg.Name,
		arg.IdentificationColumns,
		arg.FieldMappings,
		arg.AttributeMappings,
	)
	var i CsvImportStrategy
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.IdentificationColumns,
		&i.FieldMappings,
		&i.AttributeMappings,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateStrategy = `-- name: UpdateStrategy :one
UPDATE csv_import_strategies
SET name = $2,
    identification_columns = $3,
    field_mappings = $4,
    attribute_mappings = $5,
    updated_at = NOW()
WHERE id = $1
RETURNING id, name, identification_columns, field_mappings, attribute_mappings, created_at, updated_at
`

type UpdateStrategyParams struct {
	ID                    int64
	Name                  string
	IdentificationColumns []string
	FieldMappings         []byte
	AttributeMappings     []byte
}

func (q *Queries) UpdateStrategy(ctx context.Context, arg UpdateStrategyParams) (CsvImportStrategy, error) {
	row := q.db.QueryRow(ctx, updateStrategy,
		arg.ID,
		arg.Name,
		arg.IdentificationColumns,
		arg.FieldMappings,
		arg.AttributeMappings,
	)
	var i CsvImportStrategy
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.IdentificationColumns,
		&i.FieldMappings,
		&i.AttributeMappings,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteStrategy = `-- name: DeleteStrategy :execrows
DELETE FROM csv_import_strategies
WHERE id = $1
`

func (q *Queries) DeleteStrategy(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteStrategy, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
