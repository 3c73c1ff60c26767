package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Snapshot is a read-only view of accounts, categories and currencies taken
// once per batch. Lookups never touch storage.
type Snapshot struct {
	accountsByID     map[int64]Account
	accountsByName   map[string]Account
	categoriesByID   map[int64]Category
	categoriesByName map[string]Category
	currenciesByID   map[int64]Currency
	currenciesByCode map[string]Currency
}

// NewSnapshot indexes the given entities. Later duplicates of a name or code
// replace earlier ones.
func NewSnapshot(accounts []Account, categories []Category, currencies []Currency) *Snapshot {
	s := &Snapshot{
		accountsByID:     make(map[int64]Account, len(accounts)),
		accountsByName:   make(map[string]Account, len(accounts)),
		categoriesByID:   make(map[int64]Category, len(categories)),
		categoriesByName: make(map[string]Category, len(categories)),
		currenciesByID:   make(map[int64]Currency, len(currencies)),
		currenciesByCode: make(map[string]Currency, len(currencies)),
	}
	for _, a := range accounts {
		s.accountsByID[a.ID] = a
		s.accountsByName[a.Name] = a
	}
	for _, c := range categories {
		s.categoriesByID[c.ID] = c
		s.categoriesByName[c.Name] = c
	}
	for _, c := range currencies {
		s.currenciesByID[c.ID] = c
		s.currenciesByCode[normalizeCode(c.Code)] = c
	}
	return s
}

// LoadSnapshot reads every account, category and currency from r.
func LoadSnapshot(ctx context.Context, r Reader) (*Snapshot, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	currencies, err := r.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return NewSnapshot(accounts, categories, currencies), nil
}

// AccountByID returns the account with the given id.
func (s *Snapshot) AccountByID(id int64) (Account, bool) {
	a, ok := s.accountsByID[id]
	return a, ok
}

// AccountByName returns the account with exactly this name.
func (s *Snapshot) AccountByName(name string) (Account, bool) {
	a, ok := s.accountsByName[name]
	return a, ok
}

// CategoryByID returns the category with the given id.
func (s *Snapshot) CategoryByID(id int64) (Category, bool) {
	c, ok := s.categoriesByID[id]
	return c, ok
}

// CategoryByName returns the category with exactly this name.
func (s *Snapshot) CategoryByName(name string) (Category, bool) {
	c, ok := s.categoriesByName[name]
	return c, ok
}

// CurrencyByID returns the currency with the given id.
func (s *Snapshot) CurrencyByID(id int64) (Currency, bool) {
	c, ok := s.currenciesByID[id]
	return c, ok
}

// CurrencyByCode looks a currency up by code, ignoring case and surrounding space.
func (s *Snapshot) CurrencyByCode(code string) (Currency, bool) {
	c, ok := s.currenciesByCode[normalizeCode(code)]
	return c, ok
}

// Uncategorized returns the id of the Uncategorized category, if present.
func (s *Snapshot) Uncategorized() (int64, bool) {
	c, ok := s.categoriesByName[UncategorizedName]
	return c.ID, ok
}

// AccountNames returns every account name.
func (s *Snapshot) AccountNames() []string {
	names := make([]string, 0, len(s.accountsByName))
	for n := range s.accountsByName {
		names = append(names, n)
	}
	return names
}

// CategoryNames returns every category name.
func (s *Snapshot) CategoryNames() []string {
	names := make([]string, 0, len(s.categoriesByName))
	for n := range s.categoriesByName {
		names = append(names, n)
	}
	return names
}

// CurrencyCodes returns every currency code, upper-cased.
func (s *Snapshot) CurrencyCodes() []string {
	codes := make([]string, 0, len(s.currenciesByCode))
	for c := range s.currenciesByCode {
		codes = append(codes, c)
	}
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
