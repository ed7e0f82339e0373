package valueobject

import "github.com/shopspring/decimal"

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
	AUD Currency = "AUD" // Australian Dollar
	BRL Currency = "BRL" // Brazilian Real
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// IsValid returns true if the currency is one of the supported codes
func (c Currency) IsValid() bool {
	switch c {
	case USD, EUR, GBP, JPY, AUD, BRL:
		return true
	default:
		return false
	}
}

// MinorUnits returns the number of decimal places used for amounts
// in this currency (ISO 4217 minor units)
func (c Currency) MinorUnits() int32 {
	if c == JPY {
		return 0
	}
	return 2
}

// RoundToCurrency rounds an amount half-up to the currency's minor
// units. All invoice item amounts go through this before leaving the
// engine.
func RoundToCurrency(amount decimal.Decimal, currency Currency) decimal.Decimal {
	return amount.Round(currency.MinorUnits())
}
