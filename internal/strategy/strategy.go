// Package strategy models CSV import strategies: a named bundle of field
// mappings that converts one bank's statement layout into transfers, plus
// the identification columns used to pick a strategy for a file.
package strategy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrDuplicateField is returned when two mappings populate the same field.
var ErrDuplicateField = errors.New("duplicate field mapping")

// AttributeMapping captures a leftover column as a free-form attribute.
type AttributeMapping struct {
	ColumnName        string `json:"columnName"`
	AttributeTypeName string `json:"attributeTypeName"`
}

// Strategy is a reusable CSV-to-transfer mapping configuration.
type Strategy struct {
	ID                    int64
	Name                  string
	IdentificationColumns []string
	FieldMappings         map[TransferField]FieldMapping
	AttributeMappings     []AttributeMapping
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// New validates every mapping and builds a strategy.
// The result may be incomplete; see MissingFields.
func New(name string, identificationColumns []string, mappings []FieldMapping, attributes []AttributeMapping) (*Strategy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("strategy name is required")
	}

	byField := make(map[TransferField]FieldMapping, len(mappings))
	for _, m := range mappings {
		if err := Validate(m); err != nil {
			return nil, err
		}
		f := m.TargetField()
		if _, dup := byField[f]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f)
		}
		byField[f] = m
	}

	for i, a := range attributes {
		if strings.TrimSpace(a.ColumnName) == "" || strings.TrimSpace(a.AttributeTypeName) == "" {
			return nil, fmt.Errorf("attribute mapping %d needs a column and an attribute type", i+1)
		}
	}

	return &Strategy{
		Name:                  name,
		IdentificationColumns: NormalizeHeadings(identificationColumns),
		FieldMappings:         byField,
		AttributeMappings:     append([]AttributeMapping{}, attributes...),
	}, nil
}

// Mapping returns the mapping for f.
func (s *Strategy) Mapping(f TransferField) (FieldMapping, bool) {
	m, ok := s.FieldMappings[f]
	return m, ok
}

// MissingFields returns the required fields without a mapping, in RequiredFields order.
func (s *Strategy) MissingFields() []TransferField {
	var missing []TransferField
	for _, f := range RequiredFields {
		if _, ok := s.FieldMappings[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// IsComplete reports whether every required field has a mapping.
func (s *Strategy) IsComplete() bool {
	return len(s.MissingFields()) == 0
}

// Mappings returns the mappings in AllFields order.
func (s *Strategy) Mappings() []FieldMapping {
	out := make([]FieldMapping, 0, len(s.FieldMappings))
	for _, f := range AllFields {
		if m, ok := s.FieldMappings[f]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Columns returns every distinct column read by a field or attribute mapping, sorted.
func (s *Strategy) Columns() []string {
	seen := make(map[string]bool)
	for _, m := range s.FieldMappings {
		for _, c := range ColumnsOf(m) {
			seen[c] = true
		}
	}
	for _, a := range s.AttributeMappings {
		seen[a.ColumnName] = true
	}
	cols := make([]string, 0, len(seen))
	for c := range seen {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// NormalizeHeadings trims whitespace and a leading byte-order mark from each
// heading, drops blanks and duplicates, and sorts the result. Case is kept.
func NormalizeHeadings(headings []string) []string {
	seen := make(map[string]bool, len(headings))
	out := make([]string, 0, len(headings))
	for _, h := range headings {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
