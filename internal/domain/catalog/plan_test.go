package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestBillingPeriod(t *testing.T) {
	t.Run("Months maps each period", func(t *testing.T) {
		assert.Equal(t, 1, BillingPeriodMonthly.Months())
		assert.Equal(t, 3, BillingPeriodQuarterly.Months())
		assert.Equal(t, 6, BillingPeriodBiannual.Months())
		assert.Equal(t, 12, BillingPeriodAnnual.Months())
		assert.Equal(t, 0, BillingPeriodNone.Months())
	})

	t.Run("IsValid rejects unknown values", func(t *testing.T) {
		for _, p := range AllBillingPeriods() {
			assert.True(t, p.IsValid(), "expected %s to be valid", p)
		}
		assert.False(t, BillingPeriod("WEEKLY").IsValid())
	})
}

func TestPhaseDuration_AddTo(t *testing.T) {
	start := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, start.AddDate(0, 0, 30), PhaseDuration{Unit: DurationUnitDays, Length: 30}.AddTo(start))
	assert.Equal(t, start.AddDate(0, 6, 0), PhaseDuration{Unit: DurationUnitMonths, Length: 6}.AddTo(start))
	assert.Equal(t, start.AddDate(2, 0, 0), PhaseDuration{Unit: DurationUnitYears, Length: 2}.AddTo(start))
	assert.Equal(t, start, PhaseDuration{Unit: DurationUnitUnlimited}.AddTo(start))
}

func TestPlan_DateOfFirstRecurringNonZeroCharge(t *testing.T) {
	start := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)

	t.Run("skips the trial phase", func(t *testing.T) {
		plan := &Plan{
			Name: "standard-monthly",
			Phases: []PlanPhase{
				{
					Name:          "standard-monthly-trial",
					Type:          PhaseTypeTrial,
					Duration:      PhaseDuration{Unit: DurationUnitDays, Length: 30},
					BillingPeriod: BillingPeriodNone,
					FixedPrice:    price("0"),
				},
				{
					Name:           "standard-monthly-evergreen",
					Type:           PhaseTypeEvergreen,
					Duration:       PhaseDuration{Unit: DurationUnitUnlimited},
					BillingPeriod:  BillingPeriodMonthly,
					RecurringPrice: price("250.00"),
				},
			},
		}
		assert.Equal(t, start.AddDate(0, 0, 30), plan.DateOfFirstRecurringNonZeroCharge(start))
	})

	t.Run("zero recurring prices do not count", func(t *testing.T) {
		plan := &Plan{
			Phases: []PlanPhase{
				{
					Name:           "discounted",
					Type:           PhaseTypeDiscount,
					Duration:       PhaseDuration{Unit: DurationUnitMonths, Length: 3},
					BillingPeriod:  BillingPeriodMonthly,
					RecurringPrice: price("0"),
				},
				{
					Name:           "evergreen",
					Type:           PhaseTypeEvergreen,
					Duration:       PhaseDuration{Unit: DurationUnitUnlimited},
					BillingPeriod:  BillingPeriodMonthly,
					RecurringPrice: price("100.00"),
				},
			},
		}
		assert.Equal(t, start.AddDate(0, 3, 0), plan.DateOfFirstRecurringNonZeroCharge(start))
	})

	t.Run("charges from the start when the first phase bills", func(t *testing.T) {
		plan := &Plan{
			Phases: []PlanPhase{
				{
					Name:           "evergreen",
					Type:           PhaseTypeEvergreen,
					Duration:       PhaseDuration{Unit: DurationUnitUnlimited},
					BillingPeriod:  BillingPeriodMonthly,
					RecurringPrice: price("100.00"),
				},
			},
		}
		assert.Equal(t, start, plan.DateOfFirstRecurringNonZeroCharge(start))
	})
}

func TestPlan_FindPhase(t *testing.T) {
	plan := &Plan{
		Phases: []PlanPhase{
			{Name: "trial"},
			{Name: "evergreen"},
		},
	}

	phase, ok := plan.FindPhase("evergreen")
	require.True(t, ok)
	assert.Equal(t, "evergreen", phase.Name)

	_, ok = plan.FindPhase("missing")
	assert.False(t, ok)
}

func TestBillingAlignment(t *testing.T) {
	assert.True(t, BillingAlignmentAccount.IsValid())
	assert.True(t, BillingAlignmentBundle.IsValid())
	assert.True(t, BillingAlignmentSubscription.IsValid())
	assert.False(t, BillingAlignment("GLOBAL").IsValid())
}
