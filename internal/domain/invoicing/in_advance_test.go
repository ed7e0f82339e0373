package invoicing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billkit/backend/internal/domain/catalog"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

func date(year int, month time.Month, day int) valueobject.Date {
	return valueobject.NewDate(year, month, day)
}

func datePtr(year int, month time.Month, day int) *valueobject.Date {
	d := valueobject.NewDate(year, month, day)
	return &d
}

func TestInAdvanceBillingMode_ComputeCycles(t *testing.T) {
	mode := NewInAdvanceBillingMode()

	t.Run("single full cycle when start aligns with bill cycle day", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 7), nil, date(2025, 8, 7), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		require.Len(t, cycles, 1)

		assert.True(t, cycles[0].Start.Equal(date(2025, 8, 7)))
		assert.True(t, cycles[0].End.Equal(date(2025, 9, 7)))
		assert.True(t, cycles[0].Count.Equal(decimal.NewFromInt(1)))
	})

	t.Run("leading pro-ration when start falls after bill cycle day", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 10), nil, date(2025, 8, 10), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		require.Len(t, cycles, 1)

		assert.True(t, cycles[0].Start.Equal(date(2025, 8, 10)))
		assert.True(t, cycles[0].End.Equal(date(2025, 9, 7)))
		// 28 of the 31 days in [2025-08-07, 2025-09-07)
		expected := decimal.NewFromInt(28).Div(decimal.NewFromInt(31))
		assert.True(t, cycles[0].Count.Equal(expected), "count = %s", cycles[0].Count)
	})

	t.Run("leading pro-ration followed by whole periods up to the target", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 10), nil, date(2025, 10, 15), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		require.Len(t, cycles, 3)

		assert.True(t, cycles[0].Start.Equal(date(2025, 8, 10)))
		assert.True(t, cycles[0].End.Equal(date(2025, 9, 7)))

		assert.True(t, cycles[1].Start.Equal(date(2025, 9, 7)))
		assert.True(t, cycles[1].End.Equal(date(2025, 10, 7)))
		assert.True(t, cycles[1].Count.Equal(decimal.NewFromInt(1)))

		// In-advance: the period containing the target is billed in full.
		assert.True(t, cycles[2].Start.Equal(date(2025, 10, 7)))
		assert.True(t, cycles[2].End.Equal(date(2025, 11, 7)))
		assert.True(t, cycles[2].Count.Equal(decimal.NewFromInt(1)))
	})

	t.Run("trailing pro-ration when the segment ends mid-period", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 7), datePtr(2025, 9, 20), date(2025, 12, 1), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		require.Len(t, cycles, 2)

		assert.True(t, cycles[0].End.Equal(date(2025, 9, 7)))
		assert.True(t, cycles[0].Count.Equal(decimal.NewFromInt(1)))

		assert.True(t, cycles[1].Start.Equal(date(2025, 9, 7)))
		assert.True(t, cycles[1].End.Equal(date(2025, 9, 20)))
		// 13 of the 30 days in [2025-09-07, 2025-10-07)
		expected := decimal.NewFromInt(13).Div(decimal.NewFromInt(30))
		assert.True(t, cycles[1].Count.Equal(expected), "count = %s", cycles[1].Count)
	})

	t.Run("cancellation before the first aligned boundary shortens the leading cycle", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 10), datePtr(2025, 8, 20), date(2025, 12, 1), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		require.Len(t, cycles, 1)

		assert.True(t, cycles[0].Start.Equal(date(2025, 8, 10)))
		assert.True(t, cycles[0].End.Equal(date(2025, 8, 20)))
		expected := decimal.NewFromInt(10).Div(decimal.NewFromInt(31))
		assert.True(t, cycles[0].Count.Equal(expected), "count = %s", cycles[0].Count)
	})

	t.Run("end date equal to start yields no cycles", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 7), datePtr(2025, 8, 7), date(2025, 12, 1), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		assert.Empty(t, cycles)
	})

	t.Run("target before start yields no cycles", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 7), nil, date(2025, 8, 6), 7, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		assert.Empty(t, cycles)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := mode.ComputeCycles(date(2025, 8, 7), datePtr(2025, 8, 1), date(2025, 12, 1), 7, catalog.BillingPeriodMonthly)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidDateSequence)
	})

	t.Run("no billing period yields no cycles", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 7), nil, date(2025, 12, 1), 7, catalog.BillingPeriodNone)
		require.NoError(t, err)
		assert.Empty(t, cycles)
	})

	t.Run("bill cycle day 31 clamps in short months without drifting", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 1, 31), nil, date(2025, 3, 15), 31, catalog.BillingPeriodMonthly)
		require.NoError(t, err)
		require.Len(t, cycles, 2)

		// February clamps to the 28th; March recovers the 31st from the
		// original bill cycle day instead of drifting to the 28th.
		assert.True(t, cycles[0].Start.Equal(date(2025, 1, 31)))
		assert.True(t, cycles[0].End.Equal(date(2025, 2, 28)))
		assert.True(t, cycles[1].Start.Equal(date(2025, 2, 28)))
		assert.True(t, cycles[1].End.Equal(date(2025, 3, 31)))
	})

	t.Run("annual period bills one full year", func(t *testing.T) {
		cycles, err := mode.ComputeCycles(date(2025, 8, 7), nil, date(2025, 8, 7), 7, catalog.BillingPeriodAnnual)
		require.NoError(t, err)
		require.Len(t, cycles, 1)

		assert.True(t, cycles[0].End.Equal(date(2026, 8, 7)))
		assert.True(t, cycles[0].Count.Equal(decimal.NewFromInt(1)))
	})
}

func TestBillingModeRegistry(t *testing.T) {
	t.Run("resolves a registered mode", func(t *testing.T) {
		registry := NewDefaultBillingModeRegistry()
		mode, err := registry.Resolve(BillingModeInAdvance)
		require.NoError(t, err)
		assert.Equal(t, BillingModeInAdvance, mode.Mode())
	})

	t.Run("fails fast on an unregistered mode", func(t *testing.T) {
		registry := NewDefaultBillingModeRegistry()
		_, err := registry.Resolve(BillingModeInArrear)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedBillingMode)
	})

	t.Run("registration replaces the previous strategy", func(t *testing.T) {
		registry := NewBillingModeRegistry()
		registry.Register(NewInAdvanceBillingMode())
		registry.Register(NewInAdvanceBillingMode())
		assert.Len(t, registry.Modes(), 1)
	})
}
