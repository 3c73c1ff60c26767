package strategy

// mapping.go defines the closed set of FieldMapping variants.
//
// Every variant embeds Base (identity + target field) and is built through a
// New* constructor that validates it, so a malformed mapping is rejected
// before any row is processed. Code that needs to branch on the variant uses
// a type switch over the concrete types below.

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidMapping is wrapped by every construction-time validation failure.
var ErrInvalidMapping = errors.New("invalid field mapping")

// DefaultTime is the wall-clock time used when a row has no time value.
const DefaultTime = "12:00:00"

// FieldMapping describes how one Transfer field is derived from a CSV row.
type FieldMapping interface {
	MappingID() uuid.UUID
	TargetField() TransferField
	Kind() Kind
	validate() error
}

// Base carries the identity and target field shared by every mapping.
type Base struct {
	ID    uuid.UUID     `json:"id"`
	Field TransferField `json:"fieldType"`
}

func (b Base) MappingID() uuid.UUID       { return b.ID }
func (b Base) TargetField() TransferField { return b.Field }

func newBase(field TransferField) Base {
	return Base{ID: uuid.New(), Field: field}
}

func (b Base) check(k Kind) error {
	if !b.Field.Valid() {
		return invalid(k, "unknown field %q", b.Field)
	}
	if !k.Supports(b.Field) {
		return invalid(k, "cannot populate %s", b.Field)
	}
	return nil
}

// HardCodedAccount always resolves to one fixed account.
type HardCodedAccount struct {
	Base
	AccountID int64 `json:"accountId"`
}

func (HardCodedAccount) Kind() Kind { return KindHardCodedAccount }

func (m HardCodedAccount) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	if m.AccountID <= 0 {
		return invalid(m.Kind(), "account id is required")
	}
	return nil
}

// NewHardCodedAccount builds a mapping that always yields accountID.
func NewHardCodedAccount(field TransferField, accountID int64) (HardCodedAccount, error) {
	m := HardCodedAccount{Base: newBase(field), AccountID: accountID}
	return m, m.validate()
}

// AccountLookup resolves an account by the name found in a column.
type AccountLookup struct {
	Base
	ColumnName        string   `json:"columnName"`
	FallbackColumns   []string `json:"fallbackColumns"`
	CreateIfMissing   bool     `json:"createIfMissing"`
	DefaultCategoryID *int64   `json:"defaultCategoryId"`
}

func (AccountLookup) Kind() Kind { return KindAccountLookup }

func (m AccountLookup) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	return checkColumns(m.Kind(), m.ColumnName, m.FallbackColumns)
}

// NewAccountLookup validates m and assigns it a fresh identity for field.
func NewAccountLookup(field TransferField, m AccountLookup) (AccountLookup, error) {
	m.Base = newBase(field)
	m.FallbackColumns = nonNil(m.FallbackColumns)
	return m, m.validate()
}

// RegexRule maps values matching Pattern to the account named AccountName.
type RegexRule struct {
	Pattern     string `json:"pattern"`
	AccountName string `json:"accountName"`
}

// RegexAccount resolves an account by testing ordered rules against a column.
type RegexAccount struct {
	Base
	ColumnName        string      `json:"columnName"`
	Rules             []RegexRule `json:"rules"`
	FallbackColumns   []string    `json:"fallbackColumns"`
	DefaultCategoryID *int64      `json:"defaultCategoryId"`

	compiled []*regexp.Regexp
}

func (RegexAccount) Kind() Kind { return KindRegexAccount }

func (m RegexAccount) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	if err := checkColumns(m.Kind(), m.ColumnName, m.FallbackColumns); err != nil {
		return err
	}
	if len(m.Rules) == 0 {
		return invalid(m.Kind(), "at least one rule is required")
	}
	for i, r := range m.Rules {
		if strings.TrimSpace(r.AccountName) == "" {
			return invalid(m.Kind(), "rule %d has no account name", i+1)
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return invalid(m.Kind(), "rule %d: %v", i+1, err)
		}
	}
	return nil
}

// NewRegexAccount validates m, compiles its rules and assigns it a fresh identity.
func NewRegexAccount(field TransferField, m RegexAccount) (RegexAccount, error) {
	m.Base = newBase(field)
	m.FallbackColumns = nonNil(m.FallbackColumns)
	if err := m.validate(); err != nil {
		return m, err
	}
	return m.withCompiledRules(), nil
}

// withCompiledRules returns a copy with every rule pattern compiled.
// Patterns must already be valid.
func (m RegexAccount) withCompiledRules() RegexAccount {
	m.compiled = make([]*regexp.Regexp, len(m.Rules))
	for i, r := range m.Rules {
		m.compiled[i] = regexp.MustCompile(r.Pattern)
	}
	return m
}

// Match returns the account name of the first rule matching value.
func (m RegexAccount) Match(value string) (string, bool) {
	for i, r := range m.Rules {
		var re *regexp.Regexp
		if i < len(m.compiled) {
			re = m.compiled[i]
		} else {
			var err error
			if re, err = regexp.Compile(r.Pattern); err != nil {
				continue
			}
		}
		if re.MatchString(value) {
			return r.AccountName, true
		}
	}
	return "", false
}

// DateTimeParsing derives a timestamp from a date column and an optional time column.
// An empty TimeColumnName means the row has no time column.
type DateTimeParsing struct {
	Base
	DateColumnName string `json:"dateColumnName"`
	DateFormat     string `json:"dateFormat"`
	TimeColumnName string `json:"timeColumnName"`
	TimeFormat     string `json:"timeFormat"`
	DefaultTime    string `json:"defaultTime"`
}

func (DateTimeParsing) Kind() Kind { return KindDateTimeParsing }

func (m DateTimeParsing) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	if strings.TrimSpace(m.DateColumnName) == "" {
		return invalid(m.Kind(), "date column is required")
	}
	if !strings.Contains(m.DateFormat, "yy") || !strings.Contains(m.DateFormat, "MM") || !strings.Contains(m.DateFormat, "dd") {
		return invalid(m.Kind(), "date format %q must contain yy or yyyy, MM and dd", m.DateFormat)
	}
	if m.TimeColumnName != "" && m.TimeFormat == "" {
		return invalid(m.Kind(), "time format is required when a time column is set")
	}
	if m.TimeFormat != "" {
		if err := checkClockFormat(m.TimeFormat); err != nil {
			return invalid(m.Kind(), "%v", err)
		}
	}
	if dt := strings.TrimSpace(m.DefaultTime); dt != "" {
		if _, _, _, err := ParseClock(dt, ClockFormat(dt)); err != nil {
			return invalid(m.Kind(), "default time %q: %v", m.DefaultTime, err)
		}
	}
	return nil
}

// NewDateTimeParsing validates m and assigns it a fresh identity.
// A blank DefaultTime becomes DefaultTime ("12:00:00").
func NewDateTimeParsing(m DateTimeParsing) (DateTimeParsing, error) {
	m.Base = newBase(FieldTimestamp)
	if strings.TrimSpace(m.DefaultTime) == "" {
		m.DefaultTime = DefaultTime
	}
	return m, m.validate()
}

// DirectColumn copies a column value verbatim.
type DirectColumn struct {
	Base
	ColumnName      string   `json:"columnName"`
	FallbackColumns []string `json:"fallbackColumns"`
}

func (DirectColumn) Kind() Kind { return KindDirectColumn }

func (m DirectColumn) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	return checkColumns(m.Kind(), m.ColumnName, m.FallbackColumns)
}

// NewDirectColumn maps the description from column, trying fallbacks in order when it is blank.
func NewDirectColumn(column string, fallbacks ...string) (DirectColumn, error) {
	m := DirectColumn{Base: newBase(FieldDescription), ColumnName: column, FallbackColumns: nonNil(fallbacks)}
	return m, m.validate()
}

// AmountMode selects how the signed amount is read from a row.
type AmountMode string

const (
	// SingleColumn reads one signed amount column.
	SingleColumn AmountMode = "SINGLE_COLUMN"
	// CreditDebitColumns reads separate credit and debit columns; amount = credit - debit.
	CreditDebitColumns AmountMode = "CREDIT_DEBIT_COLUMNS"
)

// AmountParsing derives the signed amount of a row.
type AmountParsing struct {
	Base
	Mode                   AmountMode `json:"mode"`
	AmountColumnName       string     `json:"amountColumnName"`
	CreditColumnName       string     `json:"creditColumnName"`
	DebitColumnName        string     `json:"debitColumnName"`
	NegateValues           bool       `json:"negateValues"`
	FlipAccountsOnPositive bool       `json:"flipAccountsOnPositive"`
}

func (AmountParsing) Kind() Kind { return KindAmountParsing }

func (m AmountParsing) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	switch m.Mode {
	case SingleColumn:
		if strings.TrimSpace(m.AmountColumnName) == "" {
			return invalid(m.Kind(), "%s requires an amount column", m.Mode)
		}
	case CreditDebitColumns:
		if strings.TrimSpace(m.CreditColumnName) == "" || strings.TrimSpace(m.DebitColumnName) == "" {
			return invalid(m.Kind(), "%s requires both credit and debit columns", m.Mode)
		}
	default:
		return invalid(m.Kind(), "unknown mode %q", m.Mode)
	}
	return nil
}

// NewAmountParsing validates the mode/column combination of m and assigns it a fresh identity.
func NewAmountParsing(m AmountParsing) (AmountParsing, error) {
	m.Base = newBase(FieldAmount)
	return m, m.validate()
}

// HardCodedCurrency always resolves to one currency.
type HardCodedCurrency struct {
	Base
	CurrencyID int64 `json:"currencyId"`
}

func (HardCodedCurrency) Kind() Kind { return KindHardCodedCurrency }

func (m HardCodedCurrency) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	if m.CurrencyID <= 0 {
		return invalid(m.Kind(), "currency id is required")
	}
	return nil
}

// NewHardCodedCurrency builds a mapping that always yields currencyID.
func NewHardCodedCurrency(currencyID int64) (HardCodedCurrency, error) {
	m := HardCodedCurrency{Base: newBase(FieldCurrency), CurrencyID: currencyID}
	return m, m.validate()
}

// CurrencyLookup reads a currency code from a column.
type CurrencyLookup struct {
	Base
	ColumnName string `json:"columnName"`
}

func (CurrencyLookup) Kind() Kind { return KindCurrencyLookup }

func (m CurrencyLookup) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	return checkColumns(m.Kind(), m.ColumnName, nil)
}

// NewCurrencyLookup maps the currency from the code in column.
func NewCurrencyLookup(column string) (CurrencyLookup, error) {
	m := CurrencyLookup{Base: newBase(FieldCurrency), ColumnName: column}
	return m, m.validate()
}

// HardCodedTimezone carries a fixed IANA timezone id.
type HardCodedTimezone struct {
	Base
	TimezoneID string `json:"timezoneId"`
}

func (HardCodedTimezone) Kind() Kind { return KindHardCodedTimezone }

func (m HardCodedTimezone) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	if strings.TrimSpace(m.TimezoneID) == "" {
		return invalid(m.Kind(), "timezone id is required")
	}
	return nil
}

// NewHardCodedTimezone builds a fixed timezone mapping.
func NewHardCodedTimezone(timezoneID string) (HardCodedTimezone, error) {
	m := HardCodedTimezone{Base: newBase(FieldTimezone), TimezoneID: timezoneID}
	return m, m.validate()
}

// TimezoneLookup reads a timezone id from a column.
type TimezoneLookup struct {
	Base
	ColumnName string `json:"columnName"`
}

func (TimezoneLookup) Kind() Kind { return KindTimezoneLookup }

func (m TimezoneLookup) validate() error {
	if err := m.check(m.Kind()); err != nil {
		return err
	}
	return checkColumns(m.Kind(), m.ColumnName, nil)
}

// NewTimezoneLookup maps the timezone from column.
func NewTimezoneLookup(column string) (TimezoneLookup, error) {
	m := TimezoneLookup{Base: newBase(FieldTimezone), ColumnName: column}
	return m, m.validate()
}

// Validate checks a mapping built without its constructor, e.g. after decoding.
func Validate(m FieldMapping) error {
	if m == nil {
		return fmt.Errorf("%w: nil mapping", ErrInvalidMapping)
	}
	return m.validate()
}

// ColumnsOf returns every column name m reads, primary column first.
func ColumnsOf(m FieldMapping) []string {
	switch v := m.(type) {
	case AccountLookup:
		return append([]string{v.ColumnName}, v.FallbackColumns...)
	case RegexAccount:
		return append([]string{v.ColumnName}, v.FallbackColumns...)
	case DateTimeParsing:
		if v.TimeColumnName != "" {
			return []string{v.DateColumnName, v.TimeColumnName}
		}
		return []string{v.DateColumnName}
	case DirectColumn:
		return append([]string{v.ColumnName}, v.FallbackColumns...)
	case AmountParsing:
		if v.Mode == SingleColumn {
			return []string{v.AmountColumnName}
		}
		return []string{v.CreditColumnName, v.DebitColumnName}
	case CurrencyLookup:
		return []string{v.ColumnName}
	case TimezoneLookup:
		return []string{v.ColumnName}
	default:
		return nil
	}
}

func checkColumns(k Kind, column string, fallbacks []string) error {
	if strings.TrimSpace(column) == "" {
		return invalid(k, "column name is required")
	}
	for i, f := range fallbacks {
		if strings.TrimSpace(f) == "" {
			return invalid(k, "fallback column %d is blank", i+1)
		}
	}
	return nil
}

func invalid(k Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidMapping, k, fmt.Sprintf(format, args...))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
