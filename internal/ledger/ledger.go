// Package ledger defines the entities a statement import produces and reads:
// accounts, categories, currencies, money and transfers, plus the repository
// interfaces the import engine calls to read snapshots and create entities.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UncategorizedName is the category every new account falls back to when a
// mapping does not name a default category. It is seeded by the migrations.
const UncategorizedName = "Uncategorized"

// Account is a ledger account that transfers move money between.
type Account struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"categoryId"`
}

// Category groups accounts.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Transfer moves Amount from the source account to the target account.
// Direction is encoded only by which account is which; Amount is never negative.
// ImportID groups the transfers committed by one import.
type Transfer struct {
	ID              int64             `json:"id"`
	ImportID        uuid.UUID         `json:"importId"`
	Timestamp       time.Time         `json:"timestamp"`
	Description     string            `json:"description"`
	SourceAccountID int64             `json:"sourceAccountId"`
	TargetAccountID int64             `json:"targetAccountId"`
	Amount          Money             `json:"amount"`
	Attributes      map[string]string `json:"attributes,omitempty"`
}

// AccountReader lists every account.
type AccountReader interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// CategoryReader lists every category.
type CategoryReader interface {
	ListCategories(ctx context.Context) ([]Category, error)
}

// CurrencyReader lists every currency.
type CurrencyReader interface {
	ListCurrencies(ctx context.Context) ([]Currency, error)
}

// AccountWriter creates accounts.
type AccountWriter interface {
	CreateAccount(ctx context.Context, name string, categoryID int64) (int64, error)
}

// CategoryWriter creates categories.
type CategoryWriter interface {
	CreateCategory(ctx context.Context, name string) (int64, error)
}

// CurrencyWriter inserts a currency or returns the id of the existing one with the same code.
type CurrencyWriter interface {
	UpsertCurrencyByCode(ctx context.Context, code, name string, decimalPlaces int) (int64, error)
}

// Reader is the read side used to build a Snapshot.
type Reader interface {
	AccountReader
	CategoryReader
	CurrencyReader
}

// Repository is every collaborator the engine talks to for reference data.
type Repository interface {
	Reader
	AccountWriter
	CategoryWriter
	CurrencyWriter
}

// TransferWriter persists mapped transfers.
type TransferWriter interface {
	InsertTransfers(ctx context.Context, transfers []Transfer) (int64, error)
	// CountTransfers returns how many stored transfers carry importID.
	CountTransfers(ctx context.Context, importID uuid.UUID) (int64, error)
}

// Tx is the view of the store available inside a unit of work.
type Tx interface {
	Repository
	TransferWriter
}

// TxRunner runs fn inside a single unit of work. If fn returns an error every
// write made through the Tx passed to fn is discarded.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}
