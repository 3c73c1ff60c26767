package mapper

import (
	"strings"

	"github.com/google/uuid"
)

// Column is one heading of a statement file.
type Column struct {
	ID           uuid.UUID `json:"id"`
	Index        int       `json:"columnIndex"`
	OriginalName string    `json:"originalName"`
}

// Row is one data line of a statement file. Index is 1-based. Values may be
// shorter or longer than the heading list; missing cells read as blank.
type Row struct {
	Index  int64    `json:"rowIndex"`
	Values []string `json:"values"`
}

// Columns builds the column list for a heading row.
func Columns(headings []string) []Column {
	cols := make([]Column, len(headings))
	for i, h := range headings {
		cols[i] = Column{ID: uuid.New(), Index: i, OriginalName: h}
	}
	return cols
}

// columnIndex maps a cleaned heading to its first position.
type columnIndex map[string]int

func newColumnIndex(columns []Column) columnIndex {
	idx := make(columnIndex, len(columns))
	for _, c := range columns {
		name := cleanHeading(c.OriginalName)
		if _, dup := idx[name]; !dup {
			idx[name] = c.Index
		}
	}
	return idx
}

// cell returns the value of column name in row and whether the column exists.
func (idx columnIndex) cell(row Row, name string) (string, bool) {
	i, ok := idx[cleanHeading(name)]
	if !ok {
		return "", false
	}
	if i < 0 || i >= len(row.Values) {
		return "", true
	}
	return row.Values[i], true
}

// firstNonBlank reads column and then each fallback, returning the first
// value that is not blank after trimming.
func (idx columnIndex) firstNonBlank(row Row, column string, fallbacks []string) (string, error) {
	found := false
	for _, name := range append([]string{column}, fallbacks...) {
		v, ok := idx.cell(row, name)
		if !ok {
			continue
		}
		found = true
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
	}
	if !found {
		return "", columnMissing(column)
	}
	return "", nil
}

func cleanHeading(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}
