// Package csvfile reads bank statement exports into headings and rows.
package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/stmtimport/internal/mapper"
)

// ErrNoHeader is returned for a file without a heading row.
var ErrNoHeader = errors.New("csv file has no header row")

// ErrTooManyRows is returned when a file exceeds Options.MaxRows.
var ErrTooManyRows = errors.New("csv file has too many rows")

// Options controls Read. The zero value sniffs the delimiter and has no row limit.
type Options struct {
	Delimiter rune
	MaxRows   int
}

// File is a parsed statement.
type File struct {
	Headings  []string
	Columns   []mapper.Column
	Rows      []mapper.Row
	Delimiter rune
}

// Read parses a statement. Headings are trimmed, rows are numbered from 1 in
// file order and padded or truncated to the heading count. Blank rows are
// skipped without renumbering the rest.
func Read(r io.Reader, opts Options) (*File, error) {
	data, err := io.ReadAll(wrap(r))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	headings := make([]string, len(header))
	for i, h := range header {
		headings[i] = strings.TrimSpace(h)
	}
	if isBlank(headings) {
		return nil, ErrNoHeader
	}

	f := &File{
		Headings:  headings,
		Columns:   mapper.Columns(headings),
		Rows:      []mapper.Row{},
		Delimiter: delim,
	}
	var index int64
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", index+1, err)
		}
		index++
		if isBlank(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(f.Rows) >= opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}
		f.Rows = append(f.Rows, mapper.Row{Index: index, Values: fit(rec, len(headings))})
	}
	return f, nil
}

// fit pads or truncates rec to n cells.
func fit(rec []string, n int) []string {
	out := make([]string, n)
	copy(out, rec)
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks the most frequent of , ; tab and | outside quotes on
// the first line. Ties and empty lines fall back to comma.
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case r == ',', r == ';', r == '\t', r == '|':
			counts[r]++
		}
	}
	best, bestCount := ',', counts[',']
	for _, r := range []rune{';', '\t', '|'} {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}
