package invoicing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// Account carries the account-level billing attributes the engine needs
type Account struct {
	ID uuid.UUID
	// BillCycleDay is the account-level anchor day; zero means unset
	BillCycleDay int
	TimeZone     *time.Location
	Currency     valueobject.Currency
}

// SubscriptionRef is the minimal subscription view needed for bill
// cycle day computation
type SubscriptionRef struct {
	ID          uuid.UUID
	BundleID    uuid.UUID
	StartDate   time.Time
	CurrentPlan string
}

// SubscriptionSource resolves bundle relationships for the resolver;
// implemented by the entitlement collaborator
type SubscriptionSource interface {
	// BaseSubscription returns the base subscription of a bundle
	BaseSubscription(bundleID uuid.UUID) (*SubscriptionRef, error)
}

// SubscriptionTransition describes one subscription change for which a
// bill cycle day must be resolved
type SubscriptionTransition struct {
	SubscriptionID    uuid.UUID
	BundleID          uuid.UUID
	TransitionType    TransitionType
	PreviousPlan      string
	PreviousPhase     string
	NextPlan          string
	NextPhase         string
	EffectiveTime     time.Time
	RequestedTime     time.Time
	SubscriptionStart time.Time
	NextPriceList     string
}

// effectivePlanPhase returns the plan and phase names in force for the
// transition: the next ones, except for cancellations and billing
// pauses where the previous ones still apply
func (t SubscriptionTransition) effectivePlanPhase() (string, string) {
	switch t.TransitionType {
	case TransitionCancel, TransitionPauseBilling:
		return t.PreviousPlan, t.PreviousPhase
	default:
		return t.NextPlan, t.NextPhase
	}
}

// BillingAlignmentResolver computes the effective bill cycle day for a
// subscription transition from the catalog's billing-alignment policy
type BillingAlignmentResolver struct {
	catalog       catalog.Catalog
	subscriptions SubscriptionSource
	logger        *zap.Logger
}

// NewBillingAlignmentResolver creates a resolver
func NewBillingAlignmentResolver(cat catalog.Catalog, subscriptions SubscriptionSource, logger *zap.Logger) *BillingAlignmentResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingAlignmentResolver{catalog: cat, subscriptions: subscriptions, logger: logger}
}

// BillCycleDay resolves the bill cycle day for the transition:
//   - ACCOUNT alignment uses the account's configured day, falling back
//     to SUBSCRIPTION alignment when unset
//   - BUNDLE alignment derives the day from the bundle's base
//     subscription
//   - SUBSCRIPTION alignment derives the day from the subscription's
//     first non-zero recurring charge date
func (r *BillingAlignmentResolver) BillCycleDay(transition SubscriptionTransition, subscription SubscriptionRef, account Account) (int, error) {
	planName, phaseName := transition.effectivePlanPhase()

	plan, err := r.catalog.FindPlan(planName, transition.EffectiveTime)
	if err != nil {
		return 0, fmt.Errorf("resolving plan %q: %w", planName, err)
	}
	phase, err := r.catalog.FindPhase(phaseName, transition.EffectiveTime)
	if err != nil {
		return 0, fmt.Errorf("resolving phase %q: %w", phaseName, err)
	}

	alignment, err := r.catalog.BillingAlignment(catalog.PlanPhaseSpecifier{
		Product:       plan.Product,
		Category:      plan.Category,
		BillingPeriod: phase.BillingPeriod,
		PriceList:     transition.NextPriceList,
		PhaseType:     phase.Type,
	}, transition.RequestedTime)
	if err != nil {
		return 0, err
	}

	result := 0
	switch alignment {
	case catalog.BillingAlignmentAccount:
		result = account.BillCycleDay
		if result == 0 {
			result = billCycleDayFromSubscription(subscription, plan)
		}
	case catalog.BillingAlignmentBundle:
		base, err := r.subscriptions.BaseSubscription(transition.BundleID)
		if err != nil {
			return 0, fmt.Errorf("resolving base subscription of bundle %s: %w", transition.BundleID, err)
		}
		basePlan, err := r.catalog.FindPlan(base.CurrentPlan, transition.EffectiveTime)
		if err != nil {
			return 0, fmt.Errorf("resolving base plan %q: %w", base.CurrentPlan, err)
		}
		result = billCycleDayFromSubscription(*base, basePlan)
	case catalog.BillingAlignmentSubscription:
		result = billCycleDayFromSubscription(subscription, plan)
	}

	if result == 0 {
		return 0, fmt.Errorf("%w: alignment %s", ErrInvalidBillingAlignment, alignment)
	}

	r.logger.Debug("resolved bill cycle day",
		zap.String("subscription_id", transition.SubscriptionID.String()),
		zap.String("alignment", alignment.String()),
		zap.Int("bill_cycle_day", result))
	return result, nil
}

// billCycleDayFromSubscription uses the day-of-month of the first
// non-zero recurring charge. There are really two kinds of bill cycle
// day: a system one computed in the billing reference zone (UTC), which
// drives end-of-period notification timing, and a user one aligned with
// the account zone. Only the system one is computed here, and
// client-visible billing dates depend on it staying that way.
func billCycleDayFromSubscription(subscription SubscriptionRef, plan *catalog.Plan) int {
	date := plan.DateOfFirstRecurringNonZeroCharge(subscription.StartDate)
	return date.In(time.UTC).Day()
}
