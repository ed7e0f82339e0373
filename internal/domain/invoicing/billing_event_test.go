package invoicing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingEventTimeline(t *testing.T) {
	subscriptionID := uuid.New()
	bundleID := uuid.New()

	t.Run("events are kept ordered by effective time", func(t *testing.T) {
		timeline := NewBillingEventTimeline(false, BillingModeInAdvance, time.UTC)
		timeline.Add(evergreenEvent(subscriptionID, bundleID, time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC), 7, "250.00"))
		timeline.Add(trialEvent(subscriptionID, bundleID, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)))

		events := timeline.Events()
		require.Len(t, events, 2)
		assert.Equal(t, TransitionCreate, events[0].TransitionType)
		assert.Equal(t, TransitionPhase, events[1].TransitionType)
	})

	t.Run("simultaneous events keep insertion order", func(t *testing.T) {
		timeline := NewBillingEventTimeline(false, BillingModeInAdvance, time.UTC)
		at := time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC)
		first := evergreenEvent(subscriptionID, bundleID, at, 7, "100.00")
		second := evergreenEvent(subscriptionID, bundleID, at, 7, "200.00")
		timeline.Add(first)
		timeline.Add(second)

		events := timeline.Events()
		require.Len(t, events, 2)
		assert.Same(t, first, events[0])
		assert.Same(t, second, events[1])
	})

	t.Run("subscription ids come out in first-seen order", func(t *testing.T) {
		other := uuid.New()
		timeline := NewBillingEventTimeline(false, BillingModeInAdvance, time.UTC)
		timeline.Add(evergreenEvent(subscriptionID, bundleID, time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC), 7, "100.00"))
		timeline.Add(evergreenEvent(other, bundleID, time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC), 8, "50.00"))
		timeline.Add(evergreenEvent(subscriptionID, bundleID, time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC), 7, "100.00"))

		assert.Equal(t, []uuid.UUID{subscriptionID, other}, timeline.SubscriptionIDs())
		assert.Len(t, timeline.SubscriptionEvents(subscriptionID), 2)
		assert.Len(t, timeline.SubscriptionEvents(other), 1)
	})

	t.Run("date context is fixed by the first event and never changes", func(t *testing.T) {
		timeline := NewBillingEventTimeline(false, BillingModeInAdvance, time.UTC)
		_, err := timeline.DateContext()
		require.Error(t, err)

		firstTime := time.Date(2025, 8, 7, 12, 0, 0, 0, time.UTC)
		timeline.Add(evergreenEvent(subscriptionID, bundleID, firstTime, 7, "100.00"))
		timeline.Add(trialEvent(subscriptionID, bundleID, time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)))

		ctx, err := timeline.DateContext()
		require.NoError(t, err)
		assert.True(t, ctx.ReferenceTime().Equal(firstTime))
		assert.True(t, ctx.LocalDate(firstTime).Equal(date(2025, 8, 7)))
	})

	t.Run("per-subscription auto-invoicing flags are tracked", func(t *testing.T) {
		other := uuid.New()
		timeline := NewBillingEventTimeline(false, BillingModeInAdvance, time.UTC)
		timeline.MarkSubscriptionAutoInvoiceOff(other)

		assert.False(t, timeline.IsAccountAutoInvoiceOff())
		assert.True(t, timeline.IsSubscriptionAutoInvoiceOff(other))
		assert.False(t, timeline.IsSubscriptionAutoInvoiceOff(subscriptionID))
		assert.Equal(t, []uuid.UUID{other}, timeline.SubscriptionIDsWithAutoInvoiceOff())
	})

	t.Run("effective dates observe the event time zone", func(t *testing.T) {
		newYork, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)

		event := evergreenEvent(subscriptionID, bundleID, time.Date(2025, 8, 7, 1, 0, 0, 0, time.UTC), 7, "100.00")
		event.TimeZone = newYork
		// 01:00 UTC is still the previous evening in New York.
		assert.True(t, event.EffectiveDate().Equal(date(2025, 8, 6)))
	})
}
