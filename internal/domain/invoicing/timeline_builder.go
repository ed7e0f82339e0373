package invoicing

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/billkit/backend/internal/domain/catalog"
)

// BillingEventTimelineBuilder turns raw subscription transitions into a
// fully priced billing event timeline. It is the junction between the
// entitlement side (transitions) and the invoicing side (events): each
// transition is priced from the catalog and anchored to its resolved
// bill cycle day.
type BillingEventTimelineBuilder struct {
	resolver *BillingAlignmentResolver
	logger   *zap.Logger
}

// NewBillingEventTimelineBuilder creates a builder
func NewBillingEventTimelineBuilder(resolver *BillingAlignmentResolver, logger *zap.Logger) *BillingEventTimelineBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingEventTimelineBuilder{resolver: resolver, logger: logger}
}

// Build constructs the timeline for one account from its subscription
// transitions. Transitions may arrive in any order; the timeline keeps
// them sorted by effective time. Suppressed subscriptions still get
// their events added so the reconciler can see them, they are only
// marked on the timeline.
func (b *BillingEventTimelineBuilder) Build(account Account, subscriptions map[string]SubscriptionRef, transitions []SubscriptionTransition, accountAutoInvoiceOff bool, autoInvoiceOffSubscriptions []SubscriptionRef) (*BillingEventTimeline, error) {
	timeline := NewBillingEventTimeline(accountAutoInvoiceOff, BillingModeInAdvance, account.TimeZone)
	for _, sub := range autoInvoiceOffSubscriptions {
		timeline.MarkSubscriptionAutoInvoiceOff(sub.ID)
	}

	for _, transition := range transitions {
		subscription, ok := subscriptions[transition.SubscriptionID.String()]
		if !ok {
			return nil, fmt.Errorf("transition references unknown subscription %s", transition.SubscriptionID)
		}
		event, err := b.buildEvent(account, subscription, transition)
		if err != nil {
			return nil, err
		}
		timeline.Add(event)
	}
	return timeline, nil
}

// buildEvent prices one transition from the catalog and resolves its
// bill cycle day
func (b *BillingEventTimelineBuilder) buildEvent(account Account, subscription SubscriptionRef, transition SubscriptionTransition) (*BillingEvent, error) {
	planName, phaseName := transition.effectivePlanPhase()

	plan, err := b.resolver.catalog.FindPlan(planName, transition.EffectiveTime)
	if err != nil {
		return nil, fmt.Errorf("pricing transition for subscription %s: %w", transition.SubscriptionID, err)
	}
	phase, err := b.resolver.catalog.FindPhase(phaseName, transition.EffectiveTime)
	if err != nil {
		return nil, fmt.Errorf("pricing transition for subscription %s: %w", transition.SubscriptionID, err)
	}

	billCycleDay, err := b.resolver.BillCycleDay(transition, subscription, account)
	if err != nil {
		return nil, err
	}

	billingPeriod := phase.BillingPeriod
	fixedPrice := phase.FixedPrice
	recurringPrice := phase.RecurringPrice
	usages := usageDefinitions(phase)

	// Cancellations and billing pauses close the previous segment, they
	// are not billable segments of their own. The plan and phase names
	// are kept for alignment; the pricing is stripped so the generator
	// ends the last cycle instead of opening a new one.
	if transition.TransitionType == TransitionCancel || transition.TransitionType == TransitionPauseBilling {
		billingPeriod = catalog.BillingPeriodNone
		fixedPrice = nil
		recurringPrice = nil
		usages = nil
	}

	event := &BillingEvent{
		SubscriptionID:    transition.SubscriptionID,
		BundleID:          transition.BundleID,
		PlanName:          plan.Name,
		PhaseName:         phase.Name,
		EffectiveTime:     transition.EffectiveTime,
		TimeZone:          account.TimeZone,
		BillCycleDayLocal: billCycleDay,
		BillingPeriod:     billingPeriod,
		FixedPrice:        fixedPrice,
		RecurringPrice:    recurringPrice,
		BillingMode:       BillingModeInAdvance,
		TransitionType:    transition.TransitionType,
		Usages:            usages,
	}
	b.logger.Debug("built billing event", zap.Stringer("event", event))
	return event, nil
}

// usageDefinitions maps the catalog phase usages onto the timeline's
// usage definitions
func usageDefinitions(phase *catalog.PlanPhase) []UsageDefinition {
	if len(phase.Usages) == 0 {
		return nil
	}
	defs := make([]UsageDefinition, len(phase.Usages))
	for i, u := range phase.Usages {
		defs[i] = UsageDefinition{Name: u.Name, BillingPeriod: u.BillingPeriod}
	}
	return defs
}
