package invoicing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/shared/strategy"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// InAdvanceBillingMode charges each service period at its start. Cycles
// are anchored to the bill cycle day: the first cycle may be a short
// partial period between the segment start and the first aligned
// boundary, whole periods follow, and a trailing partial period covers
// any remainder up to the effective segment end.
type InAdvanceBillingMode struct {
	strategy.BaseStrategy
}

// NewInAdvanceBillingMode creates the in-advance billing strategy
func NewInAdvanceBillingMode() *InAdvanceBillingMode {
	return &InAdvanceBillingMode{
		BaseStrategy: strategy.NewBaseStrategy(
			"in_advance_billing",
			strategy.StrategyTypeBillingMode,
			"Bills each service period at its start, prorating partial periods by day count",
		),
	}
}

// Mode returns BillingModeInAdvance
func (s *InAdvanceBillingMode) Mode() BillingMode {
	return BillingModeInAdvance
}

// ComputeCycles returns the charge cycles for the segment
// [start, end), open-ended when end is nil. No cycle is emitted whose
// start date is after the target date.
func (s *InAdvanceBillingMode) ComputeCycles(start valueobject.Date, end *valueobject.Date, target valueobject.Date, billCycleDay int, period catalog.BillingPeriod) ([]RecurringCycle, error) {
	if end != nil && end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s precedes start date %s", ErrInvalidDateSequence, end, start)
	}
	if target.Before(start) {
		// The segment has not started by the target date; nothing to bill.
		return nil, nil
	}
	if period.Months() <= 0 {
		return nil, nil
	}

	interval := newBillingInterval(start, end, target, billCycleDay, period)

	var cycles []RecurringCycle

	// Leading pro-ration between the segment start and the first aligned
	// boundary, capped at the effective end when the segment ends before
	// that boundary.
	leadEnd := interval.firstBillingCycleDate
	if interval.effectiveEndDate.Before(leadEnd) {
		leadEnd = interval.effectiveEndDate
	}
	if start.Before(leadEnd) {
		fullDays := interval.cycleDate(-1).DaysBetween(interval.firstBillingCycleDate)
		partDays := start.DaysBetween(leadEnd)
		if count := prorationFraction(partDays, fullDays); count.IsPositive() {
			cycles = append(cycles, RecurringCycle{Start: start, End: leadEnd, Count: count})
		}
	}

	for i := 0; i < interval.wholePeriods; i++ {
		cycles = append(cycles, RecurringCycle{
			Start: interval.cycleDate(i),
			End:   interval.cycleDate(i + 1),
			Count: decimal.NewFromInt(1),
		})
	}

	// Trailing pro-ration between the last aligned boundary and the
	// effective segment end.
	if interval.lastBillingCycleDate.Before(interval.effectiveEndDate) {
		next := interval.cycleDate(interval.wholePeriods + 1)
		fullDays := interval.lastBillingCycleDate.DaysBetween(next)
		partDays := interval.lastBillingCycleDate.DaysBetween(interval.effectiveEndDate)
		if count := prorationFraction(partDays, fullDays); count.IsPositive() {
			cycles = append(cycles, RecurringCycle{Start: interval.lastBillingCycleDate, End: interval.effectiveEndDate, Count: count})
		}
	}

	return cycles, nil
}

// prorationFraction returns partDays/fullDays as a decimal, zero when
// the full period is degenerate
func prorationFraction(partDays, fullDays int) decimal.Decimal {
	if fullDays <= 0 || partDays <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(partDays)).Div(decimal.NewFromInt(int64(fullDays)))
}

// billingInterval precomputes the aligned boundaries of one billing
// segment. Cycle boundaries are always rederived from the anchor month
// and the bill cycle day so that day-of-month clamping in short months
// (bill cycle day 31 in February) never drifts the anchor.
type billingInterval struct {
	anchorYear   int
	anchorMonth  time.Month
	billCycleDay int
	periodMonths int

	firstBillingCycleDate valueobject.Date
	effectiveEndDate      valueobject.Date
	lastBillingCycleDate  valueobject.Date
	wholePeriods          int
}

func newBillingInterval(start valueobject.Date, end *valueobject.Date, target valueobject.Date, billCycleDay int, period catalog.BillingPeriod) billingInterval {
	bi := billingInterval{
		anchorYear:   start.Year(),
		anchorMonth:  start.Month(),
		billCycleDay: billCycleDay,
		periodMonths: period.Months(),
	}

	// First aligned boundary on or after the segment start.
	first := bi.cycleDate(0)
	for first.Before(start) {
		bi.shiftAnchor(bi.periodMonths)
		first = bi.cycleDate(0)
	}
	bi.firstBillingCycleDate = first

	bi.effectiveEndDate = bi.calculateEffectiveEndDate(end, target)

	// Last aligned boundary on or before the effective end, floored at
	// the first boundary.
	k := 0
	for !bi.cycleDate(k).After(bi.effectiveEndDate) {
		k++
	}
	k--
	if k < 0 {
		k = 0
	}
	bi.lastBillingCycleDate = bi.cycleDate(k)
	bi.wholePeriods = k

	return bi
}

// cycleDate returns the aligned boundary i periods after the first one;
// negative i addresses earlier boundaries
func (bi *billingInterval) cycleDate(i int) valueobject.Date {
	t := time.Date(bi.anchorYear, bi.anchorMonth+time.Month(i*bi.periodMonths), 1, 0, 0, 0, 0, time.UTC)
	year, month, _ := t.Date()
	day := bi.billCycleDay
	if last := valueobject.DaysInMonth(year, month); day > last {
		day = last
	}
	return valueobject.NewDate(year, month, day)
}

func (bi *billingInterval) shiftAnchor(months int) {
	t := time.Date(bi.anchorYear, bi.anchorMonth+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	bi.anchorYear, bi.anchorMonth, _ = t.Date()
}

// calculateEffectiveEndDate bounds the generated cycles: an end date at
// or before the target wins outright; otherwise cycles run to the first
// aligned boundary strictly after the target, capped by the end date.
func (bi *billingInterval) calculateEffectiveEndDate(end *valueobject.Date, target valueobject.Date) valueobject.Date {
	if end != nil && end.Before(target) {
		return *end
	}
	k := 0
	proposed := bi.cycleDate(0)
	for !proposed.After(target) {
		k++
		proposed = bi.cycleDate(k)
	}
	if end == nil || end.After(proposed) {
		return proposed
	}
	return *end
}
