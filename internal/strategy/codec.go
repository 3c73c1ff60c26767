package strategy

// codec.go is the JSON form of a strategy used for storage and the HTTP API.
//
// Each mapping is written as a flat object discriminated by "kind" and
// "fieldType", e.g.
//
//	{"kind":"AmountParsing","fieldType":"AMOUNT","id":"…","mode":"SINGLE_COLUMN",…}
//
// Unknown keys are ignored on read. This form carries database identifiers;
// the portable, identifier-free form lives in the export package.

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EncodeMapping writes m as a tagged JSON object.
func EncodeMapping(m FieldMapping) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s mapping: %w", m.Kind(), err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("encode %s mapping: %w", m.Kind(), err)
	}
	kind, _ := json.Marshal(m.Kind())
	obj["kind"] = kind
	return json.Marshal(obj)
}

// DecodeMapping reads a tagged JSON object and validates the result.
func DecodeMapping(data []byte) (FieldMapping, error) {
	var tag struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}

	var (
		m   FieldMapping
		err error
	)
	switch tag.Kind {
	case KindHardCodedAccount:
		m, err = decodeAs[HardCodedAccount](data)
	case KindAccountLookup:
		m, err = decodeAs[AccountLookup](data)
	case KindRegexAccount:
		var v RegexAccount
		if v, err = decodeAs[RegexAccount](data); err == nil {
			if err = v.validate(); err == nil {
				m = v.withCompiledRules()
			}
		}
	case KindDateTimeParsing:
		m, err = decodeAs[DateTimeParsing](data)
	case KindDirectColumn:
		m, err = decodeAs[DirectColumn](data)
	case KindAmountParsing:
		m, err = decodeAs[AmountParsing](data)
	case KindHardCodedCurrency:
		m, err = decodeAs[HardCodedCurrency](data)
	case KindCurrencyLookup:
		m, err = decodeAs[CurrencyLookup](data)
	case KindHardCodedTimezone:
		m, err = decodeAs[HardCodedTimezone](data)
	case KindTimezoneLookup:
		m, err = decodeAs[TimezoneLookup](data)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidMapping, tag.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return withIdentity(m), nil
}

// withIdentity assigns a fresh id to a mapping decoded without one.
func withIdentity(m FieldMapping) FieldMapping {
	if m.MappingID() != uuid.Nil {
		return m
	}
	id := uuid.New()
	switch v := m.(type) {
	case HardCodedAccount:
		v.ID = id
		return v
	case AccountLookup:
		v.ID = id
		return v
	case RegexAccount:
		v.ID = id
		return v
	case DateTimeParsing:
		v.ID = id
		return v
	case DirectColumn:
		v.ID = id
		return v
	case AmountParsing:
		v.ID = id
		return v
	case HardCodedCurrency:
		v.ID = id
		return v
	case CurrencyLookup:
		v.ID = id
		return v
	case HardCodedTimezone:
		v.ID = id
		return v
	case TimezoneLookup:
		v.ID = id
		return v
	}
	return m
}

func decodeAs[T FieldMapping](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s mapping: %w", v.Kind(), err)
	}
	return v, nil
}

// EncodeMappings writes a field→mapping object.
func EncodeMappings(mappings map[TransferField]FieldMapping) ([]byte, error) {
	obj := make(map[TransferField]json.RawMessage, len(mappings))
	for f, m := range mappings {
		raw, err := EncodeMapping(m)
		if err != nil {
			return nil, err
		}
		obj[f] = raw
	}
	return json.Marshal(obj)
}

// DecodeMappings reads a field→mapping object. A key must agree with the
// fieldType of its mapping.
func DecodeMappings(data []byte) (map[TransferField]FieldMapping, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	out := make(map[TransferField]FieldMapping, len(obj))
	for key, raw := range obj {
		f, err := ParseTransferField(key)
		if err != nil {
			return nil, err
		}
		m, err := DecodeMapping(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if m.TargetField() != f {
			return nil, fmt.Errorf("%w: key %s holds a %s mapping", ErrInvalidMapping, f, m.TargetField())
		}
		out[f] = m
	}
	return out, nil
}

type strategyJSON struct {
	ID                    int64              `json:"id"`
	Name                  string             `json:"name"`
	IdentificationColumns []string           `json:"identificationColumns"`
	FieldMappings         json.RawMessage    `json:"fieldMappings"`
	AttributeMappings     []AttributeMapping `json:"attributeMappings"`
	Complete              bool               `json:"complete"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// MarshalJSON writes the strategy with tagged mappings.
func (s Strategy) MarshalJSON() ([]byte, error) {
	mappings, err := EncodeMappings(s.FieldMappings)
	if err != nil {
		return nil, err
	}
	return json.Marshal(strategyJSON{
		ID:                    s.ID,
		Name:                  s.Name,
		IdentificationColumns: nonNil(s.IdentificationColumns),
		FieldMappings:         mappings,
		AttributeMappings:     append([]AttributeMapping{}, s.AttributeMappings...),
		Complete:              s.IsComplete(),
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	})
}

// UnmarshalJSON reads a strategy and validates it the same way New does.
func (s *Strategy) UnmarshalJSON(data []byte) error {
	var w strategyJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	mappings := map[TransferField]FieldMapping{}
	if len(w.FieldMappings) > 0 && string(w.FieldMappings) != "null" {
		var err error
		if mappings, err = DecodeMappings(w.FieldMappings); err != nil {
			return err
		}
	}
	list := make([]FieldMapping, 0, len(mappings))
	for _, m := range mappings {
		list = append(list, m)
	}
	built, err := New(w.Name, w.IdentificationColumns, list, w.AttributeMappings)
	if err != nil {
		return err
	}
	built.ID = w.ID
	built.CreatedAt = w.CreatedAt
	built.UpdatedAt = w.UpdatedAt
	*s = *built
	return nil
}
