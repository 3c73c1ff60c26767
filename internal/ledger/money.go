package ledger

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 style currency. DecimalPlaces is the number of
// minor-unit digits and defines how Money amounts are scaled.
type Currency struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

// ScaleFactor returns 10^DecimalPlaces.
func (c Currency) ScaleFactor() int64 {
	f := int64(1)
	for i := 0; i < c.DecimalPlaces; i++ {
		f *= 10
	}
	return f
}

// zeroDecimalCurrencies and threeDecimalCurrencies list ISO 4217 currencies
// whose minor unit is not 2 digits.
var (
	zeroDecimalCurrencies = map[string]bool{
		"BIF": true, "CLP": true, "DJF": true, "GNF": true, "ISK": true,
		"JPY": true, "KMF": true, "KRW": true, "PYG": true, "RWF": true,
		"UGX": true, "UYI": true, "VND": true, "VUV": true, "XAF": true,
		"XOF": true, "XPF": true,
	}
	threeDecimalCurrencies = map[string]bool{
		"BHD": true, "IQD": true, "JOD": true, "KWD": true,
		"LYD": true, "OMR": true, "TND": true,
	}
)

// DefaultDecimalPlaces returns the ISO minor-unit digits for code, or 2 when
// the code is not a known exception.
func DefaultDecimalPlaces(code string) int {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case zeroDecimalCurrencies[code]:
		return 0
	case threeDecimalCurrencies[code]:
		return 3
	default:
		return 2
	}
}

// Money is a fixed-point amount in the minor unit of its currency
// (cents for USD, yen for JPY, fils for BHD).
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// ErrAmountOutOfRange is returned when an amount does not fit in int64 minor units.
var ErrAmountOutOfRange = errors.New("amount out of range")

var (
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
)

// MoneyFromDecimal converts d to the currency's minor unit, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal, c Currency) (Money, error) {
	scaled := d.Shift(int32(c.DecimalPlaces)).Round(0)
	if scaled.LessThan(minMinorUnits) || scaled.GreaterThan(maxMinorUnits) {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{Amount: scaled.IntPart(), Currency: c}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(m.Currency.DecimalPlaces))
}

// String formats the amount with its currency code, e.g. "1234.56 USD".
func (m Money) String() string {
	s := m.Decimal().StringFixed(int32(m.Currency.DecimalPlaces))
	if m.Currency.Code == "" {
		return s
	}
	return s + " " + m.Currency.Code
}
