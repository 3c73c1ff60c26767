package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// RefType names the kind of entity a reference points to.
type RefType string

const (
	RefAccount  RefType = "ACCOUNT"
	RefCategory RefType = "CATEGORY"
	RefCurrency RefType = "CURRENCY"
)

// maxSuggestions bounds UnresolvedReference.Suggestions.
const maxSuggestions = 3

// UnresolvedReference is a name in a document with no matching entity in
// the destination database.
type UnresolvedReference struct {
	Type        RefType                `json:"type"`
	Name        string                 `json:"name"`
	FieldType   strategy.TransferField `json:"fieldType"`
	Suggestions []string               `json:"suggestions"`
}

// FindUnresolved lists every account, category and currency named by doc
// that snap does not contain, once per (name, type). Mappings without an
// embedded reference are never reported.
func FindUnresolved(doc *Document, snap *ledger.Snapshot) []UnresolvedReference {
	type key struct {
		t    RefType
		name string
	}
	seen := make(map[key]bool)
	refs := []UnresolvedReference{}

	add := func(t RefType, name string, f strategy.TransferField) {
		k := key{t, name}
		if t == RefCurrency {
			k.name = normalizeCode(name)
		}
		if seen[k] {
			return
		}
		seen[k] = true
		refs = append(refs, UnresolvedReference{
			Type:        t,
			Name:        name,
			FieldType:   f,
			Suggestions: suggest(name, candidates(t, snap)),
		})
	}

	for _, f := range strategy.AllFields {
		em, ok := doc.FieldMappings[f]
		if !ok {
			continue
		}
		switch v := em.(type) {
		case HardCodedAccount:
			if _, ok := snap.AccountByName(v.AccountName); !ok {
				add(RefAccount, v.AccountName, f)
			}
		case AccountLookup:
			if v.DefaultCategoryName != nil {
				if _, ok := snap.CategoryByName(*v.DefaultCategoryName); !ok {
					add(RefCategory, *v.DefaultCategoryName, f)
				}
			}
		case RegexAccount:
			if v.DefaultCategoryName != nil {
				if _, ok := snap.CategoryByName(*v.DefaultCategoryName); !ok {
					add(RefCategory, *v.DefaultCategoryName, f)
				}
			}
		case HardCodedCurrency:
			if _, ok := snap.CurrencyByCode(v.CurrencyCode); !ok {
				add(RefCurrency, v.CurrencyCode, f)
			}
		}
	}
	return refs
}

func candidates(t RefType, snap *ledger.Snapshot) []string {
	switch t {
	case RefAccount:
		return snap.AccountNames()
	case RefCategory:
		return snap.CategoryNames()
	case RefCurrency:
		return snap.CurrencyCodes()
	}
	return nil
}

// suggest returns up to maxSuggestions candidates closest to name by edit
// distance. Candidates further than half the name length are dropped.
func suggest(name string, pool []string) []string {
	type scored struct {
		name string
		dist int
	}
	target := []rune(strings.ToLower(name))
	limit := len(target) / 2
	if limit < 2 {
		limit = 2
	}

	var hits []scored
	for _, c := range pool {
		d := levenshtein.DistanceForStrings(target, []rune(strings.ToLower(c)), levenshtein.DefaultOptions)
		if d <= limit {
			hits = append(hits, scored{c, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})

	out := []string{}
	for i := 0; i < len(hits) && i < maxSuggestions; i++ {
		out = append(out, hits[i].name)
	}
	return out
}

// Action is how a Resolution settles a reference.
type Action string

const (
	ActionMap    Action = "map"
	ActionCreate Action = "create"
)

// Resolution settles one unresolved reference.
type Resolution struct {
	Type       RefType `json:"type"`
	Name       string  `json:"name"`
	Action     Action  `json:"action"`
	ExistingID int64   `json:"id,omitempty"`
	NewName    string  `json:"newName,omitempty"`
}

// MapToExisting binds name to an entity that already exists.
func MapToExisting(t RefType, name string, id int64) Resolution {
	return Resolution{Type: t, Name: name, Action: ActionMap, ExistingID: id}
}

// CreateNew asks for a new entity. A blank newName reuses name.
func CreateNew(t RefType, name, newName string) Resolution {
	return Resolution{Type: t, Name: name, Action: ActionCreate, NewName: newName}
}

func (r Resolution) createName() string {
	if n := strings.TrimSpace(r.NewName); n != "" {
		return n
	}
	return r.Name
}

// Service runs the export protocol against a repository.
type Service struct {
	repo ledger.Reader
	tx   ledger.TxRunner
}

// NewService returns a Service reading from repo and writing through tx.
func NewService(repo ledger.Reader, tx ledger.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// ToExport snapshots the destination and converts s into a document.
func (s *Service) ToExport(ctx context.Context, st *strategy.Strategy) (*Document, error) {
	snap, err := ledger.LoadSnapshot(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	return ToExport(st, snap)
}

// ParseExport reports every reference in doc the current database cannot
// resolve.
func (s *Service) ParseExport(ctx context.Context, doc *Document) ([]UnresolvedReference, error) {
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	snap, err := ledger.LoadSnapshot(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	return FindUnresolved(doc, snap), nil
}

// CreateStrategyFromExport applies resolutions and rebuilds the strategy.
// Entities are created in one transaction: categories, then currencies,
// then accounts. Lookups are built only after every creation finished. A
// reference still unresolved afterwards rolls the transaction back.
func (s *Service) CreateStrategyFromExport(ctx context.Context, doc *Document, resolutions []Resolution) (*strategy.Strategy, error) {
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	for _, r := range resolutions {
		if r.Action != ActionMap && r.Action != ActionCreate {
			return nil, fmt.Errorf("resolution for %q: unknown action %q", r.Name, r.Action)
		}
	}

	var built *strategy.Strategy
	err := s.tx.InTx(ctx, func(tx ledger.Tx) error {
		before, err := ledger.LoadSnapshot(ctx, tx)
		if err != nil {
			return err
		}

		// created is keyed by the document name, made by the name actually created.
		created := make(map[RefType]map[string]int64)
		made := make(map[RefType]map[string]int64)
		for _, t := range []RefType{RefCategory, RefCurrency, RefAccount} {
			created[t] = map[string]int64{}
			made[t] = map[string]int64{}
			for _, r := range resolutions {
				if r.Type != t || r.Action != ActionCreate {
					continue
				}
				id, ok := made[t][r.createName()]
				if !ok {
					if id, err = create(ctx, tx, before, r); err != nil {
						return err
					}
					made[t][r.createName()] = id
				}
				created[t][r.Name] = id
			}
		}

		after, err := ledger.LoadSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		lk := NewLookups(after)
		for t, byName := range created {
			for name, id := range byName {
				lk.set(t, name, id)
			}
		}
		for _, r := range resolutions {
			if r.Action != ActionMap {
				continue
			}
			if err := checkExists(after, r); err != nil {
				return err
			}
			lk.set(r.Type, r.Name, r.ExistingID)
		}

		built, err = FromExport(doc, lk)
		return err
	})
	if err != nil {
		return nil, err
	}
	return built, nil
}

func create(ctx context.Context, tx ledger.Tx, snap *ledger.Snapshot, r Resolution) (int64, error) {
	name := r.createName()
	switch r.Type {
	case RefCategory:
		if c, ok := snap.CategoryByName(name); ok {
			return c.ID, nil
		}
		id, err := tx.CreateCategory(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("create category %q: %w", name, err)
		}
		return id, nil

	case RefCurrency:
		code := normalizeCode(name)
		id, err := tx.UpsertCurrencyByCode(ctx, code, code, ledger.DefaultDecimalPlaces(code))
		if err != nil {
			return 0, fmt.Errorf("create currency %q: %w", code, err)
		}
		return id, nil

	case RefAccount:
		if a, ok := snap.AccountByName(name); ok {
			return a.ID, nil
		}
		cat, ok := snap.Uncategorized()
		if !ok {
			return 0, fmt.Errorf("%w: category %q not found", ErrUnresolved, ledger.UncategorizedName)
		}
		id, err := tx.CreateAccount(ctx, name, cat)
		if err != nil {
			return 0, fmt.Errorf("create account %q: %w", name, err)
		}
		return id, nil

	default:
		return 0, fmt.Errorf("unknown reference type %q", r.Type)
	}
}

func checkExists(snap *ledger.Snapshot, r Resolution) error {
	var ok bool
	switch r.Type {
	case RefAccount:
		_, ok = snap.AccountByID(r.ExistingID)
	case RefCategory:
		_, ok = snap.CategoryByID(r.ExistingID)
	case RefCurrency:
		_, ok = snap.CurrencyByID(r.ExistingID)
	default:
		return fmt.Errorf("unknown reference type %q", r.Type)
	}
	if !ok {
		return fmt.Errorf("%w: %s id %d for %q not found", ErrUnresolved, strings.ToLower(string(r.Type)), r.ExistingID, r.Name)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
