package invoicing

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// ItemGenerator walks a billing event timeline and produces the
// complete, from-scratch set of proposed invoice items for a target
// date. Proposed items cover everything since the beginning of time;
// reconciliation against existing items happens downstream.
type ItemGenerator struct {
	registry *BillingModeRegistry
	logger   *zap.Logger
}

// NewItemGenerator creates an ItemGenerator. A nil logger disables the
// diagnostic trace.
func NewItemGenerator(registry *BillingModeRegistry, logger *zap.Logger) *ItemGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemGenerator{registry: registry, logger: logger}
}

// GenerateProposedItems produces the proposed fixed-price and recurring
// items for every subscription on the timeline, skipping subscriptions
// with auto-invoicing off. Items come out in timeline order per
// subscription; no cross-subscription ordering is guaranteed.
func (g *ItemGenerator) GenerateProposedItems(accountID uuid.UUID, events *BillingEventTimeline, targetDate valueobject.Date, currency valueobject.Currency) ([]InvoiceItem, error) {
	if events == nil || events.Len() == 0 {
		return nil, nil
	}

	var items []InvoiceItem
	for _, subscriptionID := range events.SubscriptionIDs() {
		if events.IsSubscriptionAutoInvoiceOff(subscriptionID) {
			continue
		}
		subEvents := events.SubscriptionEvents(subscriptionID)
		for i, thisEvent := range subEvents {
			var nextEvent *BillingEvent
			if i+1 < len(subEvents) {
				nextEvent = subEvents[i+1]
			}
			segmentItems, err := g.processEventPair(accountID, thisEvent, nextEvent, targetDate, currency)
			if err != nil {
				return nil, err
			}
			items = append(items, segmentItems...)
		}
	}

	g.trace(accountID, events, targetDate, items)
	return items, nil
}

// processEventPair turns one billing segment (event to next event, or
// open-ended) into invoice items. Item dates are day-granular.
func (g *ItemGenerator) processEventPair(accountID uuid.UUID, thisEvent, nextEvent *BillingEvent, targetDate valueobject.Date, currency valueobject.Currency) ([]InvoiceItem, error) {
	var items []InvoiceItem

	if fixed := g.generateFixedPriceItem(accountID, thisEvent, targetDate, currency); fixed != nil {
		items = append(items, *fixed)
	}

	if thisEvent.BillingPeriod == catalog.BillingPeriodNone {
		return items, nil
	}

	mode, err := g.registry.Resolve(thisEvent.BillingMode)
	if err != nil {
		return nil, err
	}

	startDate := thisEvent.EffectiveDate()
	if startDate.After(targetDate) {
		return items, nil
	}

	var endDate *valueobject.Date
	if nextEvent != nil {
		end := nextEvent.EffectiveDate()
		endDate = &end
	}

	cycles, err := mode.ComputeCycles(startDate, endDate, targetDate, thisEvent.BillCycleDayLocal, thisEvent.BillingPeriod)
	if err != nil {
		return nil, err
	}

	for _, cycle := range cycles {
		rate := thisEvent.RecurringPrice
		if rate == nil {
			continue
		}
		amount := cycle.Count.Mul(*rate)
		items = append(items, NewRecurringItem(
			accountID,
			thisEvent.BundleID,
			thisEvent.SubscriptionID,
			thisEvent.PlanName,
			thisEvent.PhaseName,
			cycle.Start,
			cycle.End,
			amount,
			*rate,
			currency,
		))
	}

	return items, nil
}

// generateFixedPriceItem emits a fixed-price item when the event carries
// a fixed price and its effective date is not after the target date.
// A zero fixed price still produces a zero-amount item.
func (g *ItemGenerator) generateFixedPriceItem(accountID uuid.UUID, event *BillingEvent, targetDate valueobject.Date, currency valueobject.Currency) *InvoiceItem {
	date := event.EffectiveDate()
	if date.After(targetDate) {
		return nil
	}
	if event.FixedPrice == nil {
		return nil
	}
	item := NewFixedPriceItem(accountID, event.BundleID, event.SubscriptionID, event.PlanName, event.PhaseName, date, *event.FixedPrice, currency)
	return &item
}

// trace records the per-run diagnostic trace of input events and
// resulting items; it carries no algorithmic weight
func (g *ItemGenerator) trace(accountID uuid.UUID, events *BillingEventTimeline, targetDate valueobject.Date, items []InvoiceItem) {
	if !g.logger.Core().Enabled(zap.DebugLevel) {
		g.logger.Info("generated proposed invoice items",
			zap.String("account_id", accountID.String()),
			zap.String("target_date", targetDate.String()),
			zap.Int("event_count", events.Len()),
			zap.Int("item_count", len(items)))
		return
	}
	eventStrings := make([]string, 0, events.Len())
	for _, e := range events.Events() {
		eventStrings = append(eventStrings, e.String())
	}
	itemStrings := make([]string, 0, len(items))
	for _, item := range items {
		itemStrings = append(itemStrings, item.String())
	}
	g.logger.Debug("generated proposed invoice items",
		zap.String("account_id", accountID.String()),
		zap.String("target_date", targetDate.String()),
		zap.Strings("events", eventStrings),
		zap.Strings("items", itemStrings))
}
