package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

var amountNoise = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"$", "",
	"€", "",
	"£", "",
)

// ParseAmount strips thousands separators, spaces and the symbols $ € £
// from s and parses the rest as a decimal number.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := amountNoise.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, errors.New("amount is blank")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// parseOptionalAmount treats a blank cell as zero.
func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(s)
}

// rawAmount reads the signed amount of row as configured by m.
func rawAmount(m strategy.AmountParsing, idx columnIndex, row Row) (decimal.Decimal, error) {
	switch m.Mode {
	case strategy.SingleColumn:
		v, ok := idx.cell(row, m.AmountColumnName)
		if !ok {
			return decimal.Zero, columnMissing(m.AmountColumnName)
		}
		d, err := ParseAmount(v)
		if err != nil {
			return decimal.Zero, err
		}
		if m.NegateValues {
			d = d.Neg()
		}
		return d, nil

	case strategy.CreditDebitColumns:
		creditCell, ok := idx.cell(row, m.CreditColumnName)
		if !ok {
			return decimal.Zero, columnMissing(m.CreditColumnName)
		}
		debitCell, ok := idx.cell(row, m.DebitColumnName)
		if !ok {
			return decimal.Zero, columnMissing(m.DebitColumnName)
		}
		credit, err := parseOptionalAmount(creditCell)
		if err != nil {
			return decimal.Zero, fmt.Errorf("credit: %w", err)
		}
		debit, err := parseOptionalAmount(debitCell)
		if err != nil {
			return decimal.Zero, fmt.Errorf("debit: %w", err)
		}
		return credit.Sub(debit), nil

	default:
		return decimal.Zero, fmt.Errorf("unknown amount mode %q", m.Mode)
	}
}
