package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory classifies a product within a bundle
type ProductCategory string

const (
	ProductCategoryBase       ProductCategory = "BASE"
	ProductCategoryAddOn      ProductCategory = "ADD_ON"
	ProductCategoryStandalone ProductCategory = "STANDALONE"
)

// PhaseType classifies a plan phase
type PhaseType string

const (
	PhaseTypeTrial     PhaseType = "TRIAL"
	PhaseTypeDiscount  PhaseType = "DISCOUNT"
	PhaseTypeFixedTerm PhaseType = "FIXEDTERM"
	PhaseTypeEvergreen PhaseType = "EVERGREEN"
)

// DurationUnit is the unit of a phase duration
type DurationUnit string

const (
	DurationUnitDays      DurationUnit = "DAYS"
	DurationUnitMonths    DurationUnit = "MONTHS"
	DurationUnitYears     DurationUnit = "YEARS"
	DurationUnitUnlimited DurationUnit = "UNLIMITED"
)

// PhaseDuration is how long a phase lasts before the next one starts
type PhaseDuration struct {
	Unit   DurationUnit
	Length int
}

// AddTo returns the instant the duration ends when started at t.
// Unlimited durations return t unchanged; callers must check Unit.
func (d PhaseDuration) AddTo(t time.Time) time.Time {
	switch d.Unit {
	case DurationUnitDays:
		return t.AddDate(0, 0, d.Length)
	case DurationUnitMonths:
		return t.AddDate(0, d.Length, 0)
	case DurationUnitYears:
		return t.AddDate(d.Length, 0, 0)
	default:
		return t
	}
}

// Usage names a metered charge attached to a plan phase, billed on its
// own period
type Usage struct {
	Name          string
	BillingPeriod BillingPeriod
}

// PlanPhase is one pricing phase of a plan. Prices are nil when the
// phase carries no charge of that kind (nil fixed price and a zero
// fixed price are distinct: the latter still produces a zero-amount
// invoice item).
type PlanPhase struct {
	Name           string
	Type           PhaseType
	Duration       PhaseDuration
	BillingPeriod  BillingPeriod
	FixedPrice     *decimal.Decimal
	RecurringPrice *decimal.Decimal
	Usages         []Usage
}

// HasNonZeroRecurringPrice returns true if the phase bills a positive
// recurring amount
func (p *PlanPhase) HasNonZeroRecurringPrice() bool {
	return p.RecurringPrice != nil && !p.RecurringPrice.IsZero()
}

// Plan is a named sequence of phases sold from a price list
type Plan struct {
	Name      string
	Product   string
	Category  ProductCategory
	PriceList string
	Phases    []PlanPhase
}

// FindPhase returns the plan's phase with the given name
func (p *Plan) FindPhase(name string) (*PlanPhase, bool) {
	for i := range p.Phases {
		if p.Phases[i].Name == name {
			return &p.Phases[i], true
		}
	}
	return nil, false
}

// DateOfFirstRecurringNonZeroCharge walks the phases from the
// subscription start and returns the instant the first non-zero
// recurring charge applies. When no phase carries such a charge the
// end of the last bounded phase is returned.
func (p *Plan) DateOfFirstRecurringNonZeroCharge(subscriptionStart time.Time) time.Time {
	current := subscriptionStart
	for i := range p.Phases {
		phase := &p.Phases[i]
		if phase.HasNonZeroRecurringPrice() {
			return current
		}
		current = phase.Duration.AddTo(current)
	}
	return current
}
