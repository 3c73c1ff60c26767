// Package ledgertest provides an in-memory ledger.Repository for tests.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
)

// Repo is an in-memory implementation of ledger.Repository, ledger.TxRunner
// and ledger.TransferWriter. InTx works on a copy and only publishes it when
// fn succeeds, so rollbacks behave like a database transaction.
type Repo struct {
	mu    sync.Mutex
	state state

	// FailCreateAccount makes CreateAccount return this error when non-nil.
	FailCreateAccount error
	// LoseTransfers makes CountTransfers report this many fewer rows than were inserted.
	LoseTransfers int
}

type state struct {
	nextID     int64
	accounts   []ledger.Account
	categories []ledger.Category
	currencies []ledger.Currency
	transfers  []ledger.Transfer
}

func (s state) clone() state {
	c := state{nextID: s.nextID}
	c.accounts = append(c.accounts, s.accounts...)
	c.categories = append(c.categories, s.categories...)
	c.currencies = append(c.currencies, s.currencies...)
	c.transfers = append(c.transfers, s.transfers...)
	return c
}

// New returns an empty repository seeded with the Uncategorized category.
func New() *Repo {
	r := &Repo{state: state{nextID: 100}}
	r.AddCategory(ledger.UncategorizedName)
	return r
}

// AddAccount inserts an account and returns its id.
func (r *Repo) AddAccount(name string, categoryID int64) int64 {
	id, _ := r.CreateAccount(context.Background(), name, categoryID)
	return id
}

// AddCategory inserts a category and returns its id.
func (r *Repo) AddCategory(name string) int64 {
	id, _ := r.CreateCategory(context.Background(), name)
	return id
}

// AddCurrency inserts a currency and returns its id.
func (r *Repo) AddCurrency(code string, decimalPlaces int) int64 {
	id, _ := r.UpsertCurrencyByCode(context.Background(), code, code, decimalPlaces)
	return id
}

// Snapshot returns a ledger.Snapshot of the current state.
func (r *Repo) Snapshot() *ledger.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ledger.NewSnapshot(r.state.accounts, r.state.categories, r.state.currencies)
}

// Transfers returns every persisted transfer.
func (r *Repo) Transfers() []ledger.Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Transfer(nil), r.state.transfers...)
}

func (r *Repo) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Account(nil), r.state.accounts...), nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]ledger.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Category(nil), r.state.categories...), nil
}

func (r *Repo) ListCurrencies(ctx context.Context) ([]ledger.Currency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Currency(nil), r.state.currencies...), nil
}

func (r *Repo) CreateAccount(ctx context.Context, name string, categoryID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreateAccount != nil {
		return 0, r.FailCreateAccount
	}
	for _, a := range r.state.accounts {
		if a.Name == name {
			return 0, fmt.Errorf("duplicate key value violates unique constraint \"accounts_name_key\": %s", name)
		}
	}
	r.state.nextID++
	r.state.accounts = append(r.state.accounts, ledger.Account{ID: r.state.nextID, Name: name, CategoryID: categoryID})
	return r.state.nextID, nil
}

func (r *Repo) CreateCategory(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.state.categories {
		if c.Name == name {
			return 0, fmt.Errorf("duplicate key value violates unique constraint \"categories_name_key\": %s", name)
		}
	}
	r.state.nextID++
	r.state.categories = append(r.state.categories, ledger.Category{ID: r.state.nextID, Name: name})
	return r.state.nextID, nil
}

func (r *Repo) UpsertCurrencyByCode(ctx context.Context, code, name string, decimalPlaces int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, errors.New("currency code is required")
	}
	for _, c := range r.state.currencies {
		if c.Code == code {
			return c.ID, nil
		}
	}
	r.state.nextID++
	r.state.currencies = append(r.state.currencies, ledger.Currency{
		ID: r.state.nextID, Code: code, Name: name, DecimalPlaces: decimalPlaces,
	})
	return r.state.nextID, nil
}

func (r *Repo) InsertTransfers(ctx context.Context, transfers []ledger.Transfer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range transfers {
		r.state.nextID++
		t.ID = r.state.nextID
		r.state.transfers = append(r.state.transfers, t)
	}
	return int64(len(transfers)), nil
}

func (r *Repo) CountTransfers(ctx context.Context, importID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.state.transfers {
		if t.ImportID == importID {
			n++
		}
	}
	return max(n-int64(r.LoseTransfers), 0), nil
}

// InTx runs fn against a copy of the repository and commits the copy on success.
func (r *Repo) InTx(ctx context.Context, fn func(ledger.Tx) error) error {
	r.mu.Lock()
	tx := &Repo{state: r.state.clone(), FailCreateAccount: r.FailCreateAccount, LoseTransfers: r.LoseTransfers}
	r.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	r.state = tx.state
	r.mu.Unlock()
	return nil
}

// AccountNames returns every account name in sorted order.
func (r *Repo) AccountNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.state.accounts))
	for _, a := range r.state.accounts {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return names
}
