package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrTooManyDecimals   = errors.New("amount has more precision than the currency allows")
)

func init() {
	// clients read amounts as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// zero-decimal currencies are charged in whole units
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// Exponent returns the number of minor-unit digits for a currency
func Exponent(currency string) int32 {
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// ToMinorUnits converts a major-unit amount into integer minor units (25.50 usd -> 2550).
// Amounts with sub-minor precision are rejected rather than rounded.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrNonPositiveAmount
	}
	exp := Exponent(currency)
	scaled := amount.Shift(exp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, ErrTooManyDecimals
	}
	return scaled.IntPart(), nil
}

// FromMinorUnits converts integer minor units back to a major-unit amount
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Exponent(currency))
}

// RoundCents rounds to the currency's minor unit
func RoundCents(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(Exponent(currency))
}
