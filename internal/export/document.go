// Package export moves strategies between databases whose identifiers differ.
//
// A Document replaces every database id in a strategy with the name or code
// of the entity it points to. Importing a document is two-phase: ParseExport
// reports names the destination does not know, and CreateStrategyFromExport
// applies the caller's resolutions and rebuilds an id-bearing strategy.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// Version is written into every document.
const Version = "1"

var (
	// ErrUnresolved is wrapped when a name or id has no matching entity.
	ErrUnresolved = errors.New("unresolved reference")
	// ErrUnsupportedVersion is returned for documents of another major version.
	ErrUnsupportedVersion = errors.New("unsupported export version")
)

// Mapping is the id-free form of a strategy.FieldMapping.
type Mapping interface {
	Kind() strategy.Kind
	TargetField() strategy.TransferField
}

// Base carries the target field of every export mapping.
type Base struct {
	Field strategy.TransferField `json:"fieldType"`
}

func (b Base) TargetField() strategy.TransferField { return b.Field }

type HardCodedAccount struct {
	Base
	AccountName string `json:"accountName"`
}

type AccountLookup struct {
	Base
	ColumnName          string   `json:"columnName"`
	FallbackColumns     []string `json:"fallbackColumns"`
	CreateIfMissing     bool     `json:"createIfMissing"`
	DefaultCategoryName *string  `json:"defaultCategoryName"`
}

type RegexAccount struct {
	Base
	ColumnName          string               `json:"columnName"`
	Rules               []strategy.RegexRule `json:"rules"`
	FallbackColumns     []string             `json:"fallbackColumns"`
	DefaultCategoryName *string              `json:"defaultCategoryName"`
}

type DateTimeParsing struct {
	Base
	DateColumnName string `json:"dateColumnName"`
	DateFormat     string `json:"dateFormat"`
	TimeColumnName string `json:"timeColumnName"`
	TimeFormat     string `json:"timeFormat"`
	DefaultTime    string `json:"defaultTime"`
}

type DirectColumn struct {
	Base
	ColumnName      string   `json:"columnName"`
	FallbackColumns []string `json:"fallbackColumns"`
}

type AmountParsing struct {
	Base
	Mode                   strategy.AmountMode `json:"mode"`
	AmountColumnName       string              `json:"amountColumnName"`
	CreditColumnName       string              `json:"creditColumnName"`
	DebitColumnName        string              `json:"debitColumnName"`
	NegateValues           bool                `json:"negateValues"`
	FlipAccountsOnPositive bool                `json:"flipAccountsOnPositive"`
}

type HardCodedCurrency struct {
	Base
	CurrencyCode string `json:"currencyCode"`
}

type CurrencyLookup struct {
	Base
	ColumnName string `json:"columnName"`
}

type HardCodedTimezone struct {
	Base
	TimezoneID string `json:"timezoneId"`
}

type TimezoneLookup struct {
	Base
	ColumnName string `json:"columnName"`
}

func (HardCodedAccount) Kind() strategy.Kind  { return strategy.KindHardCodedAccount }
func (AccountLookup) Kind() strategy.Kind     { return strategy.KindAccountLookup }
func (RegexAccount) Kind() strategy.Kind      { return strategy.KindRegexAccount }
func (DateTimeParsing) Kind() strategy.Kind   { return strategy.KindDateTimeParsing }
func (DirectColumn) Kind() strategy.Kind      { return strategy.KindDirectColumn }
func (AmountParsing) Kind() strategy.Kind     { return strategy.KindAmountParsing }
func (HardCodedCurrency) Kind() strategy.Kind { return strategy.KindHardCodedCurrency }
func (CurrencyLookup) Kind() strategy.Kind    { return strategy.KindCurrencyLookup }
func (HardCodedTimezone) Kind() strategy.Kind { return strategy.KindHardCodedTimezone }
func (TimezoneLookup) Kind() strategy.Kind    { return strategy.KindTimezoneLookup }

// Document is the portable form of a strategy.
type Document struct {
	Version               string
	Name                  string
	IdentificationColumns []string
	FieldMappings         map[strategy.TransferField]Mapping
	AttributeMappings     []strategy.AttributeMapping
}

type documentJSON struct {
	Version               string                                     `json:"version"`
	Name                  string                                     `json:"name"`
	IdentificationColumns []string                                   `json:"identificationColumns"`
	FieldMappings         map[strategy.TransferField]json.RawMessage `json:"fieldMappings"`
	AttributeMappings     []strategy.AttributeMapping                `json:"attributeMappings"`
}

// MarshalJSON writes every field, including zero values, with each mapping
// tagged by kind and fieldType.
func (d Document) MarshalJSON() ([]byte, error) {
	w := documentJSON{
		Version:               d.Version,
		Name:                  d.Name,
		IdentificationColumns: append([]string{}, d.IdentificationColumns...),
		FieldMappings:         make(map[strategy.TransferField]json.RawMessage, len(d.FieldMappings)),
		AttributeMappings:     append([]strategy.AttributeMapping{}, d.AttributeMappings...),
	}
	if w.Version == "" {
		w.Version = Version
	}
	for f, m := range d.FieldMappings {
		raw, err := encodeMapping(m)
		if err != nil {
			return nil, err
		}
		w.FieldMappings[f] = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads a document, ignoring unknown keys and unknown
// transfer fields.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := checkVersion(w.Version); err != nil {
		return err
	}
	out := Document{
		Version:               w.Version,
		Name:                  w.Name,
		IdentificationColumns: w.IdentificationColumns,
		FieldMappings:         make(map[strategy.TransferField]Mapping, len(w.FieldMappings)),
		AttributeMappings:     w.AttributeMappings,
	}
	for key, raw := range w.FieldMappings {
		f, err := strategy.ParseTransferField(string(key))
		if err != nil {
			// A field added by a newer writer.
			continue
		}
		m, err := decodeMapping(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		if m.TargetField() != f {
			return fmt.Errorf("%w: key %s holds a %s mapping", strategy.ErrInvalidMapping, f, m.TargetField())
		}
		out.FieldMappings[f] = m
	}
	*d = out
	return nil
}

// Decode parses a document.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return &d, nil
}

// Encode writes a document as indented JSON.
func Encode(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// checkVersion accepts any version whose major part equals Version's.
func checkVersion(v string) error {
	major, _, _ := strings.Cut(strings.TrimSpace(v), ".")
	if major != Version {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
	}
	return nil
}

func encodeMapping(m Mapping) (json.RawMessage, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s mapping: %w", m.Kind(), err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	obj["kind"], _ = json.Marshal(m.Kind())
	return json.Marshal(obj)
}

func decodeMapping(raw json.RawMessage) (Mapping, error) {
	var tag struct {
		Kind strategy.Kind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	switch tag.Kind {
	case strategy.KindHardCodedAccount:
		return decodeAs[HardCodedAccount](raw)
	case strategy.KindAccountLookup:
		return decodeAs[AccountLookup](raw)
	case strategy.KindRegexAccount:
		return decodeAs[RegexAccount](raw)
	case strategy.KindDateTimeParsing:
		return decodeAs[DateTimeParsing](raw)
	case strategy.KindDirectColumn:
		return decodeAs[DirectColumn](raw)
	case strategy.KindAmountParsing:
		return decodeAs[AmountParsing](raw)
	case strategy.KindHardCodedCurrency:
		return decodeAs[HardCodedCurrency](raw)
	case strategy.KindCurrencyLookup:
		return decodeAs[CurrencyLookup](raw)
	case strategy.KindHardCodedTimezone:
		return decodeAs[HardCodedTimezone](raw)
	case strategy.KindTimezoneLookup:
		return decodeAs[TimezoneLookup](raw)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", strategy.ErrInvalidMapping, tag.Kind)
	}
}

func decodeAs[T Mapping](raw json.RawMessage) (Mapping, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s mapping: %w", v.Kind(), err)
	}
	return v, nil
}
