// Package catalog provides the pricing-catalog domain model consumed by
// the invoicing engine: plans, plan phases, billing periods and the
// billing-alignment policy that decides how recurring charges anchor to
// a bill cycle day.
//
// The catalog itself is an external collaborator; this package defines
// the lookup contract and the value types it returns. Implementations
// live under internal/infrastructure/catalogstore.
package catalog

import (
	"time"

	"github.com/billkit/backend/internal/domain/shared"
)

// BillingAlignment decides which bill-cycle-day policy applies to a
// plan phase
type BillingAlignment string

const (
	// BillingAlignmentAccount anchors charges to the account's bill cycle day
	BillingAlignmentAccount BillingAlignment = "ACCOUNT"
	// BillingAlignmentBundle anchors charges to the bundle's base subscription
	BillingAlignmentBundle BillingAlignment = "BUNDLE"
	// BillingAlignmentSubscription anchors charges to the subscription's own
	// first non-zero recurring charge date
	BillingAlignmentSubscription BillingAlignment = "SUBSCRIPTION"
)

// IsValid returns true if the alignment is a known policy
func (a BillingAlignment) IsValid() bool {
	switch a {
	case BillingAlignmentAccount, BillingAlignmentBundle, BillingAlignmentSubscription:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (a BillingAlignment) String() string {
	return string(a)
}

// PlanPhaseSpecifier identifies a plan phase for policy lookups
type PlanPhaseSpecifier struct {
	Product       string
	Category      ProductCategory
	BillingPeriod BillingPeriod
	PriceList     string
	PhaseType     PhaseType
}

// Common catalog errors
var (
	ErrPlanNotFound  = shared.NewDomainError("CAT_PLAN_NOT_FOUND", "Plan not found in catalog")
	ErrPhaseNotFound = shared.NewDomainError("CAT_PHASE_NOT_FOUND", "Plan phase not found in catalog")
	ErrNoAlignment   = shared.NewDomainError("CAT_NO_BILLING_ALIGNMENT", "No billing alignment configured for plan phase")
)

// Catalog resolves plans, phases and billing-alignment policy as of an
// effective date
type Catalog interface {
	// FindPlan returns the plan by name, effective at the given instant
	FindPlan(name string, effective time.Time) (*Plan, error)
	// FindPhase returns the phase by its fully qualified name, effective
	// at the given instant
	FindPhase(name string, effective time.Time) (*PlanPhase, error)
	// BillingAlignment returns the alignment policy for the specified
	// plan phase as of the requested instant
	BillingAlignment(spec PlanPhaseSpecifier, requested time.Time) (BillingAlignment, error)
}
