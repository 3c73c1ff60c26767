// Package mapper turns statement rows into ledger transfers using a strategy.
//
// Mapping is pure: a Mapper reads only its strategy, the column layout and
// a ledger.Snapshot taken before the batch. Every failure while mapping a
// row becomes a RowError; nothing escapes MapRow as a Go error.
package mapper

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/stmtimport/internal/ledger"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// NewAccountID is the placeholder account id used for an account that does
// not exist yet. Transfers carrying it cannot be committed.
const NewAccountID int64 = -1

// RowError describes why a row could not be mapped.
type RowError struct {
	RowIndex int64  `json:"rowIndex"`
	Message  string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.RowIndex, e.Message)
}

// NewAccount is an account a row refers to by name that does not exist yet.
// Field is the transfer side holding the placeholder, after any flip.
type NewAccount struct {
	Name       string                 `json:"name"`
	CategoryID int64                  `json:"categoryId"`
	Field      strategy.TransferField `json:"fieldType"`
}

// Mapped is a successfully mapped row.
type Mapped struct {
	RowIndex    int64
	Transfer    ledger.Transfer
	NewAccounts []NewAccount
}

// Mapper maps rows of one file with one strategy.
type Mapper struct {
	strategy *strategy.Strategy
	snap     *ledger.Snapshot
	columns  columnIndex
}

// New returns a Mapper for files with the given columns.
func New(s *strategy.Strategy, columns []Column, snap *ledger.Snapshot) *Mapper {
	return &Mapper{strategy: s, snap: snap, columns: newColumnIndex(columns)}
}

type rowFailure struct{ msg string }

func (f rowFailure) Error() string { return f.msg }

func fail(format string, args ...any) error {
	return rowFailure{msg: fmt.Sprintf(format, args...)}
}

func columnMissing(name string) error {
	return fail("Column %q not found", name)
}

// MapRow maps a single row. Exactly one of the results is meaningful: a
// non-nil *RowError means the row was rejected.
func (m *Mapper) MapRow(row Row) (Mapped, *RowError) {
	mapped, err := m.mapRow(row)
	if err != nil {
		return Mapped{}, &RowError{RowIndex: row.Index, Message: err.Error()}
	}
	return mapped, nil
}

func (m *Mapper) mapRow(row Row) (Mapped, error) {
	if missing := m.strategy.MissingFields(); len(missing) > 0 {
		return Mapped{}, fail("Missing mapping for %s", missing[0])
	}
	out := Mapped{RowIndex: row.Index}

	amountMapping, ok := m.strategy.FieldMappings[strategy.FieldAmount].(strategy.AmountParsing)
	if !ok {
		return Mapped{}, fail("Unsupported amount mapping")
	}
	raw, err := rawAmount(amountMapping, m.columns, row)
	if err != nil {
		return Mapped{}, fail("Failed to parse amount: %v", err)
	}

	currency, err := m.currency(row)
	if err != nil {
		return Mapped{}, err
	}

	flip := amountMapping.FlipAccountsOnPositive && raw.IsPositive()

	sourceID, sourceNew, err := m.account(strategy.FieldSourceAccount, row)
	if err != nil {
		return Mapped{}, err
	}
	targetID, targetNew, err := m.account(strategy.FieldTargetAccount, row)
	if err != nil {
		return Mapped{}, err
	}
	if flip {
		sourceID, targetID = targetID, sourceID
		sourceNew, targetNew = onSide(targetNew, strategy.FieldSourceAccount), onSide(sourceNew, strategy.FieldTargetAccount)
	}

	tsMapping, ok := m.strategy.FieldMappings[strategy.FieldTimestamp].(strategy.DateTimeParsing)
	if !ok {
		return Mapped{}, fail("Unsupported timestamp mapping")
	}
	ts, err := timestampOf(tsMapping, m.columns, row)
	if err != nil {
		return Mapped{}, fail("Failed to parse timestamp: %v", err)
	}

	descMapping, ok := m.strategy.FieldMappings[strategy.FieldDescription].(strategy.DirectColumn)
	if !ok {
		return Mapped{}, fail("Unsupported description mapping")
	}
	description, err := m.description(descMapping, row)
	if err != nil {
		return Mapped{}, err
	}

	amount, err := ledger.MoneyFromDecimal(raw.Abs(), currency)
	if err != nil {
		return Mapped{}, fail("Failed to parse amount: %v", err)
	}

	out.Transfer = ledger.Transfer{
		Timestamp:       ts,
		Description:     description,
		SourceAccountID: sourceID,
		TargetAccountID: targetID,
		Amount:          amount,
		Attributes:      m.attributes(row),
	}
	for _, na := range []*NewAccount{sourceNew, targetNew} {
		if na != nil {
			out.NewAccounts = append(out.NewAccounts, *na)
		}
	}
	return out, nil
}

func (m *Mapper) currency(row Row) (ledger.Currency, error) {
	switch cm := m.strategy.FieldMappings[strategy.FieldCurrency].(type) {
	case strategy.HardCodedCurrency:
		c, ok := m.snap.CurrencyByID(cm.CurrencyID)
		if !ok {
			return ledger.Currency{}, fail("Currency not found")
		}
		return c, nil
	case strategy.CurrencyLookup:
		code, ok := m.columns.cell(row, cm.ColumnName)
		if !ok {
			return ledger.Currency{}, columnMissing(cm.ColumnName)
		}
		c, ok := m.snap.CurrencyByCode(code)
		if !ok {
			return ledger.Currency{}, fail("Currency not found")
		}
		return c, nil
	default:
		return ledger.Currency{}, fail("Unsupported currency mapping")
	}
}

// account resolves one account field. A name that does not exist yet
// resolves to NewAccountID and is returned as a NewAccount, whatever the
// lookup's CreateIfMissing flag says.
func (m *Mapper) account(field strategy.TransferField, row Row) (int64, *NewAccount, error) {
	switch am := m.strategy.FieldMappings[field].(type) {
	case strategy.HardCodedAccount:
		return am.AccountID, nil, nil

	case strategy.AccountLookup:
		name, err := m.columns.firstNonBlank(row, am.ColumnName, am.FallbackColumns)
		if err != nil {
			return 0, nil, err
		}
		if name == "" {
			return 0, nil, fail("No account name in column %q", am.ColumnName)
		}
		if a, ok := m.snap.AccountByName(name); ok {
			return a.ID, nil, nil
		}
		return NewAccountID, m.newAccount(name, am.DefaultCategoryID, field), nil

	case strategy.RegexAccount:
		value, err := m.columns.firstNonBlank(row, am.ColumnName, am.FallbackColumns)
		if err != nil {
			return 0, nil, err
		}
		name, ok := am.Match(value)
		if !ok {
			return 0, nil, fail("No account rule matches %q", value)
		}
		if a, ok := m.snap.AccountByName(name); ok {
			return a.ID, nil, nil
		}
		return NewAccountID, m.newAccount(name, am.DefaultCategoryID, field), nil

	default:
		return 0, nil, fail("Unsupported account mapping for %s", field)
	}
}

// onSide moves a pending account to the side its placeholder ends up on.
func onSide(na *NewAccount, field strategy.TransferField) *NewAccount {
	if na != nil {
		na.Field = field
	}
	return na
}

func (m *Mapper) newAccount(name string, categoryID *int64, field strategy.TransferField) *NewAccount {
	na := &NewAccount{Name: name, Field: field}
	if categoryID != nil {
		na.CategoryID = *categoryID
	} else if id, ok := m.snap.Uncategorized(); ok {
		na.CategoryID = id
	}
	return na
}

func (m *Mapper) description(dm strategy.DirectColumn, row Row) (string, error) {
	v, ok := m.columns.cell(row, dm.ColumnName)
	if !ok {
		return "", columnMissing(dm.ColumnName)
	}
	if strings.TrimSpace(v) != "" || len(dm.FallbackColumns) == 0 {
		return v, nil
	}
	for _, fb := range dm.FallbackColumns {
		if fv, ok := m.columns.cell(row, fb); ok && strings.TrimSpace(fv) != "" {
			return fv, nil
		}
	}
	return v, nil
}

// attributes copies every non-blank attribute column. Attribute columns
// absent from the file are skipped.
func (m *Mapper) attributes(row Row) map[string]string {
	var attrs map[string]string
	for _, a := range m.strategy.AttributeMappings {
		v, ok := m.columns.cell(row, a.ColumnName)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[a.AttributeTypeName] = strings.TrimSpace(v)
	}
	return attrs
}

