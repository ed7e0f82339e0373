package invoicing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/shared"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// TransitionType classifies the subscription change a billing event
// records
type TransitionType string

const (
	TransitionCreate        TransitionType = "CREATE"
	TransitionChange        TransitionType = "CHANGE"
	TransitionPhase         TransitionType = "PHASE"
	TransitionCancel        TransitionType = "CANCEL"
	TransitionPauseBilling  TransitionType = "PAUSE_BILLING"
	TransitionResumeBilling TransitionType = "RESUME_BILLING"
)

// UsageDefinition names a metered usage attached to a plan phase. Usage
// charges are resolved by a usage billing mode strategy; the timeline
// only carries the definitions through.
type UsageDefinition struct {
	Name          string
	BillingPeriod catalog.BillingPeriod
}

// BillingEvent is a timestamped record of a subscription-affecting
// change carrying the pricing metadata in force from its effective time.
// Events are immutable once created.
type BillingEvent struct {
	SubscriptionID    uuid.UUID
	BundleID          uuid.UUID
	PlanName          string
	PhaseName         string
	EffectiveTime     time.Time
	TimeZone          *time.Location
	BillCycleDayLocal int
	BillingPeriod     catalog.BillingPeriod
	FixedPrice        *decimal.Decimal
	RecurringPrice    *decimal.Decimal
	BillingMode       BillingMode
	TransitionType    TransitionType
	Usages            []UsageDefinition
}

// EffectiveDate returns the civil date of the event's effective time
// observed in the event's own time zone
func (e *BillingEvent) EffectiveDate() valueobject.Date {
	return valueobject.NewDateFromTime(e.EffectiveTime, e.TimeZone)
}

// String is used in diagnostic traces
func (e *BillingEvent) String() string {
	return fmt.Sprintf("BillingEvent[sub=%s plan=%s phase=%s type=%s effective=%s bcd=%d period=%s]",
		e.SubscriptionID, e.PlanName, e.PhaseName, e.TransitionType,
		e.EffectiveTime.Format(time.RFC3339), e.BillCycleDayLocal, e.BillingPeriod)
}

// AccountDateContext fixes the account's date-boundary computations to
// one time zone and reference instant for the lifetime of a timeline
type AccountDateContext struct {
	referenceTime time.Time
	zone          *time.Location
}

// ReferenceTime returns the context's reference instant
func (c *AccountDateContext) ReferenceTime() time.Time {
	return c.referenceTime
}

// TimeZone returns the context's fixed time zone
func (c *AccountDateContext) TimeZone() *time.Location {
	return c.zone
}

// LocalDate returns the civil date of t observed in the context's zone
func (c *AccountDateContext) LocalDate(t time.Time) valueobject.Date {
	return valueobject.NewDateFromTime(t, c.zone)
}

// BillingEventTimeline is the ordered per-account collection of billing
// events, totally ordered by effective time with ties broken by
// insertion order. It owns its sorted container (composition, not
// subclassing) and the account-level invoicing metadata.
type BillingEventTimeline struct {
	events []*BillingEvent

	accountAutoInvoiceOff bool
	autoInvoiceOffSubs    map[uuid.UUID]struct{}
	recurringBillingMode  BillingMode
	accountTimeZone       *time.Location

	// fixed from the first inserted event, then never changes
	dateContext *AccountDateContext
}

// NewBillingEventTimeline creates an empty timeline for an account
func NewBillingEventTimeline(accountAutoInvoiceOff bool, recurringBillingMode BillingMode, accountTimeZone *time.Location) *BillingEventTimeline {
	if accountTimeZone == nil {
		accountTimeZone = time.UTC
	}
	return &BillingEventTimeline{
		accountAutoInvoiceOff: accountAutoInvoiceOff,
		autoInvoiceOffSubs:    make(map[uuid.UUID]struct{}),
		recurringBillingMode:  recurringBillingMode,
		accountTimeZone:       accountTimeZone,
	}
}

// Add inserts an event keeping the timeline ordered by effective time;
// events with equal effective times keep insertion order. The first
// event ever added fixes the account date context.
func (t *BillingEventTimeline) Add(e *BillingEvent) {
	if t.dateContext == nil {
		t.dateContext = &AccountDateContext{referenceTime: e.EffectiveTime, zone: t.accountTimeZone}
	}
	idx := sort.Search(len(t.events), func(i int) bool {
		return t.events[i].EffectiveTime.After(e.EffectiveTime)
	})
	t.events = append(t.events, nil)
	copy(t.events[idx+1:], t.events[idx:])
	t.events[idx] = e
}

// Len returns the number of events
func (t *BillingEventTimeline) Len() int {
	return len(t.events)
}

// Events returns the ordered events. The returned slice is shared; the
// timeline and its events must not be mutated by callers.
func (t *BillingEventTimeline) Events() []*BillingEvent {
	return t.events
}

// SubscriptionIDs returns the distinct subscription ids in order of
// first appearance on the timeline
func (t *BillingEventTimeline) SubscriptionIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(t.events))
	var ids []uuid.UUID
	for _, e := range t.events {
		if _, ok := seen[e.SubscriptionID]; !ok {
			seen[e.SubscriptionID] = struct{}{}
			ids = append(ids, e.SubscriptionID)
		}
	}
	return ids
}

// SubscriptionEvents returns the ordered subsequence of events for one
// subscription
func (t *BillingEventTimeline) SubscriptionEvents(subscriptionID uuid.UUID) []*BillingEvent {
	var events []*BillingEvent
	for _, e := range t.events {
		if e.SubscriptionID == subscriptionID {
			events = append(events, e)
		}
	}
	return events
}

// IsAccountAutoInvoiceOff returns true when invoicing is suppressed for
// the whole account
func (t *BillingEventTimeline) IsAccountAutoInvoiceOff() bool {
	return t.accountAutoInvoiceOff
}

// MarkSubscriptionAutoInvoiceOff suppresses invoicing for one
// subscription
func (t *BillingEventTimeline) MarkSubscriptionAutoInvoiceOff(subscriptionID uuid.UUID) {
	t.autoInvoiceOffSubs[subscriptionID] = struct{}{}
}

// IsSubscriptionAutoInvoiceOff returns true when invoicing is
// suppressed for the subscription
func (t *BillingEventTimeline) IsSubscriptionAutoInvoiceOff(subscriptionID uuid.UUID) bool {
	_, ok := t.autoInvoiceOffSubs[subscriptionID]
	return ok
}

// SubscriptionIDsWithAutoInvoiceOff returns the suppressed subscription
// ids in unspecified order
func (t *BillingEventTimeline) SubscriptionIDsWithAutoInvoiceOff() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.autoInvoiceOffSubs))
	for id := range t.autoInvoiceOffSubs {
		ids = append(ids, id)
	}
	return ids
}

// RecurringBillingMode returns the account's default recurring billing
// mode
func (t *BillingEventTimeline) RecurringBillingMode() BillingMode {
	return t.recurringBillingMode
}

// AccountTimeZone returns the account's time zone
func (t *BillingEventTimeline) AccountTimeZone() *time.Location {
	return t.accountTimeZone
}

// DateContext returns the account date context fixed from the first
// inserted event. It errors on an empty timeline.
func (t *BillingEventTimeline) DateContext() (*AccountDateContext, error) {
	if t.dateContext == nil {
		return nil, shared.NewDomainError("INVOICE_NO_BILLING_EVENTS", "Account date context requires at least one billing event")
	}
	return t.dateContext, nil
}

// Usages aggregates the usage definitions across all events, keyed by
// usage name
func (t *BillingEventTimeline) Usages() map[string]UsageDefinition {
	result := make(map[string]UsageDefinition)
	for _, e := range t.events {
		for _, u := range e.Usages {
			result[u.Name] = u
		}
	}
	return result
}
