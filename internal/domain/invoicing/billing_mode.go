package invoicing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/shared/strategy"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// BillingMode enumerates when a recurring charge is billed relative to
// the service period it covers
type BillingMode string

const (
	// BillingModeInAdvance bills at the start of each service period
	BillingModeInAdvance BillingMode = "IN_ADVANCE"
	// BillingModeInArrear bills at the end of each service period
	BillingModeInArrear BillingMode = "IN_ARREAR"
	// BillingModeUsage bills from metered usage records
	BillingModeUsage BillingMode = "USAGE"
)

// IsValid returns true if the billing mode is a known value
func (m BillingMode) IsValid() bool {
	switch m {
	case BillingModeInAdvance, BillingModeInArrear, BillingModeUsage:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (m BillingMode) String() string {
	return string(m)
}

// RecurringCycle is one charge cycle produced by a billing mode
// strategy. Count is 1 for a full period and the day-count fraction of a
// full period for a partial one.
type RecurringCycle struct {
	Start valueobject.Date
	End   valueobject.Date
	Count decimal.Decimal
}

// BillingModeStrategy splits a billing segment into charge cycles
// anchored to a bill cycle day. The end date is nil for an open-ended
// segment. No cycle may start after the target date.
type BillingModeStrategy interface {
	strategy.Strategy
	// Mode returns the billing mode this strategy implements
	Mode() BillingMode
	// ComputeCycles returns the ordered charge cycles for the segment
	ComputeCycles(start valueobject.Date, end *valueobject.Date, target valueobject.Date, billCycleDay int, period catalog.BillingPeriod) ([]RecurringCycle, error)
}

// BillingModeRegistry maps billing modes to their strategies. New modes
// are added by registration; looking up an unregistered mode fails fast
// with ErrUnsupportedBillingMode instead of silently defaulting.
type BillingModeRegistry struct {
	strategies map[BillingMode]BillingModeStrategy
}

// NewBillingModeRegistry creates an empty registry
func NewBillingModeRegistry() *BillingModeRegistry {
	return &BillingModeRegistry{strategies: make(map[BillingMode]BillingModeStrategy)}
}

// NewDefaultBillingModeRegistry creates a registry with the in-advance
// strategy registered
func NewDefaultBillingModeRegistry() *BillingModeRegistry {
	r := NewBillingModeRegistry()
	r.Register(NewInAdvanceBillingMode())
	return r
}

// Register adds or replaces the strategy for its mode
func (r *BillingModeRegistry) Register(s BillingModeStrategy) {
	r.strategies[s.Mode()] = s
}

// Resolve returns the strategy for the given mode, or
// ErrUnsupportedBillingMode when none is registered
func (r *BillingModeRegistry) Resolve(mode BillingMode) (BillingModeStrategy, error) {
	s, ok := r.strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBillingMode, mode)
	}
	return s, nil
}

// Modes returns the registered billing modes
func (r *BillingModeRegistry) Modes() []BillingMode {
	modes := make([]BillingMode, 0, len(r.strategies))
	for m := range r.strategies {
		modes = append(modes, m)
	}
	return modes
}
