package export

import (
	"fmt"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// ToExport replaces every id in s with the name or code it refers to in snap.
func ToExport(s *strategy.Strategy, snap *ledger.Snapshot) (*Document, error) {
	doc := &Document{
		Version:               Version,
		Name:                  s.Name,
		IdentificationColumns: append([]string{}, s.IdentificationColumns...),
		FieldMappings:         make(map[strategy.TransferField]Mapping, len(s.FieldMappings)),
		AttributeMappings:     append([]strategy.AttributeMapping{}, s.AttributeMappings...),
	}
	for f, m := range s.FieldMappings {
		em, err := toExportMapping(m, snap)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", f, err)
		}
		doc.FieldMappings[f] = em
	}
	return doc, nil
}

func toExportMapping(m strategy.FieldMapping, snap *ledger.Snapshot) (Mapping, error) {
	base := Base{Field: m.TargetField()}
	switch v := m.(type) {
	case strategy.HardCodedAccount:
		a, ok := snap.AccountByID(v.AccountID)
		if !ok {
			return nil, fmt.Errorf("%w: account id %d", ErrUnresolved, v.AccountID)
		}
		return HardCodedAccount{Base: base, AccountName: a.Name}, nil

	case strategy.AccountLookup:
		cat, err := categoryName(v.DefaultCategoryID, snap)
		if err != nil {
			return nil, err
		}
		return AccountLookup{
			Base:                base,
			ColumnName:          v.ColumnName,
			FallbackColumns:     append([]string{}, v.FallbackColumns...),
			CreateIfMissing:     v.CreateIfMissing,
			DefaultCategoryName: cat,
		}, nil

	case strategy.RegexAccount:
		cat, err := categoryName(v.DefaultCategoryID, snap)
		if err != nil {
			return nil, err
		}
		return RegexAccount{
			Base:                base,
			ColumnName:          v.ColumnName,
			Rules:               append([]strategy.RegexRule{}, v.Rules...),
			FallbackColumns:     append([]string{}, v.FallbackColumns...),
			DefaultCategoryName: cat,
		}, nil

	case strategy.DateTimeParsing:
		return DateTimeParsing{
			Base:           base,
			DateColumnName: v.DateColumnName,
			DateFormat:     v.DateFormat,
			TimeColumnName: v.TimeColumnName,
			TimeFormat:     v.TimeFormat,
			DefaultTime:    v.DefaultTime,
		}, nil

	case strategy.DirectColumn:
		return DirectColumn{Base: base, ColumnName: v.ColumnName, FallbackColumns: append([]string{}, v.FallbackColumns...)}, nil

	case strategy.AmountParsing:
		return AmountParsing{
			Base:                   base,
			Mode:                   v.Mode,
			AmountColumnName:       v.AmountColumnName,
			CreditColumnName:       v.CreditColumnName,
			DebitColumnName:        v.DebitColumnName,
			NegateValues:           v.NegateValues,
			FlipAccountsOnPositive: v.FlipAccountsOnPositive,
		}, nil

	case strategy.HardCodedCurrency:
		c, ok := snap.CurrencyByID(v.CurrencyID)
		if !ok {
			return nil, fmt.Errorf("%w: currency id %d", ErrUnresolved, v.CurrencyID)
		}
		return HardCodedCurrency{Base: base, CurrencyCode: c.Code}, nil

	case strategy.CurrencyLookup:
		return CurrencyLookup{Base: base, ColumnName: v.ColumnName}, nil

	case strategy.HardCodedTimezone:
		return HardCodedTimezone{Base: base, TimezoneID: v.TimezoneID}, nil

	case strategy.TimezoneLookup:
		return TimezoneLookup{Base: base, ColumnName: v.ColumnName}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported mapping %T", strategy.ErrInvalidMapping, m)
	}
}

func categoryName(id *int64, snap *ledger.Snapshot) (*string, error) {
	if id == nil {
		return nil, nil
	}
	c, ok := snap.CategoryByID(*id)
	if !ok {
		return nil, fmt.Errorf("%w: category id %d", ErrUnresolved, *id)
	}
	name := c.Name
	return &name, nil
}

// Lookups maps names and codes to ids in the destination database.
type Lookups struct {
	Accounts   map[string]int64
	Categories map[string]int64
	Currencies map[string]int64
}

// NewLookups indexes every entity in snap by name or upper-cased code.
func NewLookups(snap *ledger.Snapshot) *Lookups {
	lk := &Lookups{
		Accounts:   map[string]int64{},
		Categories: map[string]int64{},
		Currencies: map[string]int64{},
	}
	for _, n := range snap.AccountNames() {
		a, _ := snap.AccountByName(n)
		lk.Accounts[n] = a.ID
	}
	for _, n := range snap.CategoryNames() {
		c, _ := snap.CategoryByName(n)
		lk.Categories[n] = c.ID
	}
	for _, code := range snap.CurrencyCodes() {
		c, _ := snap.CurrencyByCode(code)
		lk.Currencies[code] = c.ID
	}
	return lk
}

func (lk *Lookups) set(t RefType, name string, id int64) {
	switch t {
	case RefAccount:
		lk.Accounts[name] = id
	case RefCategory:
		lk.Categories[name] = id
	case RefCurrency:
		lk.Currencies[normalizeCode(name)] = id
	}
}

func (lk *Lookups) account(name string) (int64, error) {
	if id, ok := lk.Accounts[name]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: account %q not found", ErrUnresolved, name)
}

func (lk *Lookups) category(name *string) (*int64, error) {
	if name == nil {
		return nil, nil
	}
	id, ok := lk.Categories[*name]
	if !ok {
		return nil, fmt.Errorf("%w: category %q not found", ErrUnresolved, *name)
	}
	return &id, nil
}

func (lk *Lookups) currency(code string) (int64, error) {
	if id, ok := lk.Currencies[normalizeCode(code)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: currency %q not found", ErrUnresolved, code)
}

// FromExport rebuilds a strategy from doc, giving every mapping a fresh
// identity. A name missing from lk fails the whole conversion.
func FromExport(doc *Document, lk *Lookups) (*strategy.Strategy, error) {
	mappings := make([]strategy.FieldMapping, 0, len(doc.FieldMappings))
	for _, f := range strategy.AllFields {
		em, ok := doc.FieldMappings[f]
		if !ok {
			continue
		}
		m, err := fromExportMapping(em, lk)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		mappings = append(mappings, m)
	}
	return strategy.New(doc.Name, doc.IdentificationColumns, mappings, doc.AttributeMappings)
}

func fromExportMapping(em Mapping, lk *Lookups) (strategy.FieldMapping, error) {
	f := em.TargetField()
	switch v := em.(type) {
	case HardCodedAccount:
		id, err := lk.account(v.AccountName)
		if err != nil {
			return nil, err
		}
		return strategy.NewHardCodedAccount(f, id)

	case AccountLookup:
		cat, err := lk.category(v.DefaultCategoryName)
		if err != nil {
			return nil, err
		}
		return strategy.NewAccountLookup(f, strategy.AccountLookup{
			ColumnName:        v.ColumnName,
			FallbackColumns:   append([]string{}, v.FallbackColumns...),
			CreateIfMissing:   v.CreateIfMissing,
			DefaultCategoryID: cat,
		})

	case RegexAccount:
		cat, err := lk.category(v.DefaultCategoryName)
		if err != nil {
			return nil, err
		}
		return strategy.NewRegexAccount(f, strategy.RegexAccount{
			ColumnName:        v.ColumnName,
			Rules:             append([]strategy.RegexRule{}, v.Rules...),
			FallbackColumns:   append([]string{}, v.FallbackColumns...),
			DefaultCategoryID: cat,
		})

	case DateTimeParsing:
		return strategy.NewDateTimeParsing(strategy.DateTimeParsing{
			DateColumnName: v.DateColumnName,
			DateFormat:     v.DateFormat,
			TimeColumnName: v.TimeColumnName,
			TimeFormat:     v.TimeFormat,
			DefaultTime:    v.DefaultTime,
		})

	case DirectColumn:
		return strategy.NewDirectColumn(v.ColumnName, v.FallbackColumns...)

	case AmountParsing:
		return strategy.NewAmountParsing(strategy.AmountParsing{
			Mode:                   v.Mode,
			AmountColumnName:       v.AmountColumnName,
			CreditColumnName:       v.CreditColumnName,
			DebitColumnName:        v.DebitColumnName,
			NegateValues:           v.NegateValues,
			FlipAccountsOnPositive: v.FlipAccountsOnPositive,
		})

	case HardCodedCurrency:
		id, err := lk.currency(v.CurrencyCode)
		if err != nil {
			return nil, err
		}
		return strategy.NewHardCodedCurrency(id)

	case CurrencyLookup:
		return strategy.NewCurrencyLookup(v.ColumnName)

	case HardCodedTimezone:
		return strategy.NewHardCodedTimezone(v.TimezoneID)

	case TimezoneLookup:
		return strategy.NewTimezoneLookup(v.ColumnName)

	default:
		return nil, fmt.Errorf("%w: unsupported export mapping %T", strategy.ErrInvalidMapping, em)
	}
}
