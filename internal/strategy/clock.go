package strategy

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockFormat returns the HH:mm or HH:mm:ss format implied by a time value.
func ClockFormat(value string) string {
	if strings.Count(value, ":") >= 2 {
		return "HH:mm:ss"
	}
	return "HH:mm"
}

// checkClockFormat reports whether format is colon-separated runs of
// H (or h), m and s.
func checkClockFormat(format string) error {
	for _, tok := range strings.Split(format, ":") {
		if tok == "" || strings.Trim(tok, tok[:1]) != "" || !strings.ContainsAny(tok[:1], "Hhms") {
			return fmt.Errorf("unsupported time token %q in %q", tok, format)
		}
	}
	return nil
}

// ParseClock reads a wall-clock time laid out by format, e.g. "HH:mm:ss".
func ParseClock(value, format string) (hour, minute, second int, err error) {
	if err := checkClockFormat(format); err != nil {
		return 0, 0, 0, err
	}
	tokens := strings.Split(format, ":")
	values := strings.Split(value, ":")
	if len(tokens) != len(values) {
		return 0, 0, 0, fmt.Errorf("time %q does not fit format %q", value, format)
	}
	for i, tok := range tokens {
		n, err := strconv.Atoi(strings.TrimSpace(values[i]))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("time %q: %q is not a number", value, values[i])
		}
		switch tok[0] {
		case 'H', 'h':
			if n < 0 || n > 23 {
				return 0, 0, 0, fmt.Errorf("hour %d out of range", n)
			}
			hour = n
		case 'm':
			if n < 0 || n > 59 {
				return 0, 0, 0, fmt.Errorf("minute %d out of range", n)
			}
			minute = n
		case 's':
			if n < 0 || n > 59 {
				return 0, 0, 0, fmt.Errorf("second %d out of range", n)
			}
			second = n
		}
	}
	return hour, minute, second, nil
}
