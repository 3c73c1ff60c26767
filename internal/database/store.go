package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// DefaultCopyBatchSize is the number of transfers sent per COPY when the
// store is built with a non-positive batch size.
const DefaultCopyBatchSize = 1000

// Store implements the ledger collaborators and strategy persistence on a
// pgx pool.
type Store struct {
	repo
	pool *pgxpool.Pool
}

// NewStore returns a Store that copies transfers in batches of batchSize.
func NewStore(pool *pgxpool.Pool, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultCopyBatchSize
	}
	return &Store{
		repo: repo{q: New(pool), batchSize: batchSize},
		pool: pool,
	}
}

// InTx runs fn inside a transaction. The transaction commits only when fn
// returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ledger.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := fn(repo{q: s.q.WithTx(tx), batchSize: s.batchSize}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// repo adapts Queries to ledger.Tx. It is bound either to the pool or to a
// single transaction.
type repo struct {
	q         *Queries
	batchSize int
}

func (r repo) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.q.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Account, len(rows))
	for i, a := range rows {
		out[i] = ledger.Account{ID: a.ID, Name: a.Name, CategoryID: a.CategoryID}
	}
	return out, nil
}

func (r repo) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	rows, err := r.q.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Category, len(rows))
	for i, c := range rows {
		out[i] = ledger.Category{ID: c.ID, Name: c.Name}
	}
	return out, nil
}

func (r repo) ListCurrencies(ctx context.Context) ([]ledger.Currency, error) {
	rows, err := r.q.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Currency, len(rows))
	for i, c := range rows {
		out[i] = ledger.Currency{ID: c.ID, Code: c.Code, Name: c.Name, DecimalPlaces: int(c.DecimalPlaces)}
	}
	return out, nil
}

func (r repo) CreateAccount(ctx context.Context, name string, categoryID int64) (int64, error) {
	return r.q.CreateAccount(ctx, CreateAccountParams{Name: name, CategoryID: categoryID})
}

func (r repo) CreateCategory(ctx context.Context, name string) (int64, error) {
	return r.q.CreateCategory(ctx, name)
}

func (r repo) UpsertCurrencyByCode(ctx context.Context, code, name string, decimalPlaces int) (int64, error) {
	return r.q.UpsertCurrencyByCode(ctx, UpsertCurrencyByCodeParams{
		Code:          code,
		Name:          name,
		DecimalPlaces: int32(decimalPlaces),
	})
}

// InsertTransfers copies transfers in batches and returns the number written.
func (r repo) InsertTransfers(ctx context.Context, transfers []ledger.Transfer) (int64, error) {
	rows, err := transferRows(transfers)
	if err != nil {
		return 0, err
	}
	var total int64
	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))
		n, err := r.q.CopyTransfers(ctx, rows[start:end])
		if err != nil {
			return total, fmt.Errorf("copy transfers %d-%d: %w", start+1, end, err)
		}
		total += n
	}
	return total, nil
}

// CountTransfers counts the stored transfers of one import.
func (r repo) CountTransfers(ctx context.Context, importID uuid.UUID) (int64, error) {
	return r.q.CountTransfersByImport(ctx, pgtype.UUID{Bytes: importID, Valid: true})
}

func transferRows(transfers []ledger.Transfer) ([]Transfer, error) {
	rows := make([]Transfer, len(transfers))
	for i, t := range transfers {
		attrs := []byte("{}")
		if len(t.Attributes) > 0 {
			var err error
			if attrs, err = json.Marshal(t.Attributes); err != nil {
				return nil, fmt.Errorf("encode attributes: %w", err)
			}
		}
		rows[i] = Transfer{
			ImportID:        pgtype.UUID{Bytes: t.ImportID, Valid: true},
			Timestamp:       pgtype.Timestamptz{Time: t.Timestamp, Valid: true},
			Description:     t.Description,
			SourceAccountID: t.SourceAccountID,
			TargetAccountID: t.TargetAccountID,
			Amount:          t.Amount.Amount,
			CurrencyID:      t.Amount.Currency.ID,
			Attributes:      attrs,
		}
	}
	return rows, nil
}

// ListStrategies returns every stored strategy in creation order.
func (s *Store) ListStrategies(ctx context.Context) ([]*strategy.Strategy, error) {
	rows, err := s.q.ListStrategies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	out := make([]*strategy.Strategy, 0, len(rows))
	for _, row := range rows {
		st, err := strategyFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// GetStrategy returns the strategy with id or ErrNotFound.
func (s *Store) GetStrategy(ctx context.Context, id int64) (*strategy.Strategy, error) {
	row, err := s.q.GetStrategy(ctx, id)
	if err != nil {
		return nil, notFound(err, "strategy", id)
	}
	return strategyFromRow(row)
}

// CreateStrategy stores st and returns the stored copy with its id and timestamps.
func (s *Store) CreateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	fields, attrs, err := encodeStrategy(st)
	if err != nil {
		return nil, err
	}
	row, err := s.q.CreateStrategy(ctx, CreateStrategyParams{
		Name:                  st.Name,
		IdentificationColumns: nonNil(st.IdentificationColumns),
		FieldMappings:         fields,
		AttributeMappings:     attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("create strategy %q: %w", st.Name, err)
	}
	return strategyFromRow(row)
}

// UpdateStrategy replaces the stored strategy with st.ID.
func (s *Store) UpdateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	fields, attrs, err := encodeStrategy(st)
	if err != nil {
		return nil, err
	}
	row, err := s.q.UpdateStrategy(ctx, UpdateStrategyParams{
		ID:                    st.ID,
		Name:                  st.Name,
		IdentificationColumns: nonNil(st.IdentificationColumns),
		FieldMappings:         fields,
		AttributeMappings:     attrs,
	})
	if err != nil {
		return nil, notFound(err, "strategy", st.ID)
	}
	return strategyFromRow(row)
}

// DeleteStrategy removes the strategy with id.
func (s *Store) DeleteStrategy(ctx context.Context, id int64) error {
	n, err := s.q.DeleteStrategy(ctx, id)
	if err != nil {
		return fmt.Errorf("delete strategy %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("strategy %d: %w", id, ErrNotFound)
	}
	return nil
}

func encodeStrategy(st *strategy.Strategy) (fields, attrs []byte, err error) {
	if fields, err = strategy.EncodeMappings(st.FieldMappings); err != nil {
		return nil, nil, err
	}
	list := st.AttributeMappings
	if list == nil {
		list = []strategy.AttributeMapping{}
	}
	if attrs, err = json.Marshal(list); err != nil {
		return nil, nil, fmt.Errorf("encode attribute mappings: %w", err)
	}
	return fields, attrs, nil
}

func strategyFromRow(row CsvImportStrategy) (*strategy.Strategy, error) {
	mappings := map[strategy.TransferField]strategy.FieldMapping{}
	if len(row.FieldMappings) > 0 {
		var err error
		if mappings, err = strategy.DecodeMappings(row.FieldMappings); err != nil {
			return nil, fmt.Errorf("strategy %d: %w", row.ID, err)
		}
	}
	var attrs []strategy.AttributeMapping
	if len(row.AttributeMappings) > 0 {
		if err := json.Unmarshal(row.AttributeMappings, &attrs); err != nil {
			return nil, fmt.Errorf("strategy %d: decode attribute mappings: %w", row.ID, err)
		}
	}
	list := make([]strategy.FieldMapping, 0, len(mappings))
	for _, f := range strategy.AllFields {
		if m, ok := mappings[f]; ok {
			list = append(list, m)
		}
	}
	st, err := strategy.New(row.Name, row.IdentificationColumns, list, attrs)
	if err != nil {
		return nil, fmt.Errorf("strategy %d: %w", row.ID, err)
	}
	st.ID = row.ID
	st.CreatedAt = row.CreatedAt.Time
	st.UpdatedAt = row.UpdatedAt.Time
	return st, nil
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", what, id, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
