package mapper

// datetime.go is a positional token parser for statement dates, not a
// general format engine. A date format is made of the tokens yyyy or yy, MM
// and dd separated by one non-letter character. Time formats are
// colon-separated HH:mm[:ss]. Results are always UTC.

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

type dateParts struct {
	year, month, day     int
	hour, minute, second int
}

// ParseTimestamp combines a date value and an optional time value. A blank
// time value falls back to defaultTime, and a blank defaultTime to noon.
func ParseTimestamp(dateValue, dateFormat, timeValue, timeFormat, defaultTime string) (time.Time, error) {
	var p dateParts
	if err := p.parseDate(strings.TrimSpace(dateValue), dateFormat); err != nil {
		return time.Time{}, err
	}

	timeValue = strings.TrimSpace(timeValue)
	if timeValue == "" || timeFormat == "" {
		timeValue = strings.TrimSpace(defaultTime)
		if timeValue == "" {
			timeValue = strategy.DefaultTime
		}
		timeFormat = strategy.ClockFormat(timeValue)
	}
	if err := p.parseTime(timeValue, timeFormat); err != nil {
		return time.Time{}, err
	}

	iso := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", p.year, p.month, p.day, p.hour, p.minute, p.second)
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateValue, err)
	}
	return ts.UTC(), nil
}

// separatorOf returns the first character of format that is not y, M or d.
func separatorOf(format string) (string, bool) {
	for _, r := range format {
		if r != 'y' && r != 'M' && r != 'd' {
			return string(r), true
		}
	}
	return "", false
}

func (p *dateParts) parseDate(value, format string) error {
	if value == "" {
		return fmt.Errorf("date is blank")
	}

	var tokens, values []string
	if sep, ok := separatorOf(format); ok {
		tokens = strings.Split(format, sep)
		values = strings.Split(value, sep)
	} else {
		// No separator: read fixed-width fields, e.g. yyyyMMdd.
		tokens = letterRuns(format)
		if len(value) != len(format) {
			return fmt.Errorf("date %q does not fit format %q", value, format)
		}
		pos := 0
		for _, tok := range tokens {
			values = append(values, value[pos:pos+len(tok)])
			pos += len(tok)
		}
	}
	if len(tokens) != len(values) {
		return fmt.Errorf("date %q does not fit format %q", value, format)
	}

	seen := 0
	for i, tok := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(values[i]))
		if err != nil {
			return fmt.Errorf("date %q: %q is not a number", value, values[i])
		}
		switch {
		case strings.HasPrefix(tok, "y"):
			if len(tok) <= 2 {
				n += 2000
			}
			p.year = n
			seen |= 1
		case strings.HasPrefix(tok, "M"):
			p.month = n
			seen |= 2
		case strings.HasPrefix(tok, "d"):
			p.day = n
			seen |= 4
		default:
			return fmt.Errorf("unsupported date token %q in %q", tok, format)
		}
	}
	if seen != 7 {
		return fmt.Errorf("date format %q needs year, month and day", format)
	}
	return nil
}

func (p *dateParts) parseTime(value, format string) error {
	var err error
	p.hour, p.minute, p.second, err = strategy.ParseClock(value, format)
	return err
}

// letterRuns splits "yyyyMMdd" into ["yyyy" "MM" "dd"].
func letterRuns(format string) []string {
	var runs []string
	for i := 0; i < len(format); {
		j := i + 1
		for j < len(format) && format[j] == format[i] {
			j++
		}
		runs = append(runs, format[i:j])
		i = j
	}
	return runs
}

// timestampOf applies a DateTimeParsing mapping to a row.
func timestampOf(m strategy.DateTimeParsing, idx columnIndex, row Row) (time.Time, error) {
	dateValue, ok := idx.cell(row, m.DateColumnName)
	if !ok {
		return time.Time{}, columnMissing(m.DateColumnName)
	}
	var timeValue string
	if m.TimeColumnName != "" {
		if timeValue, ok = idx.cell(row, m.TimeColumnName); !ok {
			return time.Time{}, columnMissing(m.TimeColumnName)
		}
	}
	return ParseTimestamp(dateValue, m.DateFormat, timeValue, m.TimeFormat, m.DefaultTime)
}
