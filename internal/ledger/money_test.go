package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyFromDecimal(t *testing.T) {
	usd := Currency{Code: "USD", DecimalPlaces: 2}
	jpy := Currency{Code: "JPY", DecimalPlaces: 0}

	tests := []struct {
		name    string
		amount  string
		cur     Currency
		want    int64
		wantErr error
	}{
		{"cents", "12.34", usd, 1234, nil},
		{"rounds half away from zero", "0.005", usd, 1, nil},
		{"negative rounds away from zero", "-0.005", usd, -1, nil},
		{"zero decimals", "1200", jpy, 1200, nil},
		{"largest amount", "92233720368547758.07", usd, 9223372036854775807, nil},
		{"just past int64", "92233720368547758.08", usd, 0, ErrAmountOutOfRange},
		{"far past int64", "99999999999999999999.99", usd, 0, ErrAmountOutOfRange},
		{"negative past int64", "-99999999999999999999.99", usd, 0, ErrAmountOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MoneyFromDecimal(decimal.RequireFromString(tt.amount), tt.cur)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got.Amount != tt.want {
				t.Errorf("amount = %d, want %d", got.Amount, tt.want)
			}
		})
	}
}
