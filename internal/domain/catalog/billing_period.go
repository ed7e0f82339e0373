package catalog

// BillingPeriod enumerates how often a recurring price is charged
type BillingPeriod string

const (
	BillingPeriodMonthly   BillingPeriod = "MONTHLY"
	BillingPeriodQuarterly BillingPeriod = "QUARTERLY"
	BillingPeriodBiannual  BillingPeriod = "BIANNUAL"
	BillingPeriodAnnual    BillingPeriod = "ANNUAL"
	BillingPeriodNone      BillingPeriod = "NO_BILLING_PERIOD"
)

// IsValid returns true if the billing period is a known value
func (p BillingPeriod) IsValid() bool {
	switch p {
	case BillingPeriodMonthly, BillingPeriodQuarterly, BillingPeriodBiannual, BillingPeriodAnnual, BillingPeriodNone:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (p BillingPeriod) String() string {
	return string(p)
}

// Months returns the number of months covered by one billing period,
// zero for BillingPeriodNone
func (p BillingPeriod) Months() int {
	switch p {
	case BillingPeriodMonthly:
		return 1
	case BillingPeriodQuarterly:
		return 3
	case BillingPeriodBiannual:
		return 6
	case BillingPeriodAnnual:
		return 12
	default:
		return 0
	}
}

// AllBillingPeriods returns all valid billing periods
func AllBillingPeriods() []BillingPeriod {
	return []BillingPeriod{
		BillingPeriodMonthly,
		BillingPeriodQuarterly,
		BillingPeriodBiannual,
		BillingPeriodAnnual,
		BillingPeriodNone,
	}
}
