package bonus_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/bonus"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/generic/store"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/ratetable"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func testRates(t *testing.T) *ratetable.Set {
	t.Helper()
	s := ratetable.NewSet()
	require.NoError(t, s.AddBonus(ratetable.BonusRate{Band: ratetable.Band{Min: 5, Max: 15}, ProductCode: "END", Year: 2024, BonusPerThousand: dec("40")}))
	return s
}

func activeHolder() *policy.Holder {
	return &policy.Holder{
		ID:            "ph-1",
		ProductCode:   "END",
		SumAssured:    dec("500000"),
		DurationYears: 10,
		Status:        policy.StatusActive,
		StartDate:     date(2021, time.April, 1),
	}
}

func TestCalculate_BonusPerThousand(t *testing.T) {
	// GIVEN: 40 per thousand, SA 500000
	// THEN: 500 × 40 = 20000.00

	amount, err := bonus.Calculate(context.Background(), testRates(t), activeHolder())
	require.NoError(t, err)
	assert.True(t, amount.Equal(dec("20000.00")), "got %s", amount)
	assert.Equal(t, "20000.00", amount.StringFixed(2))
}

func TestCalculate_NoRateIsZero(t *testing.T) {
	h := activeHolder()
	h.DurationYears = 20

	amount, err := bonus.Calculate(context.Background(), testRates(t), h)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestAccrue_CatchesUpEveryCompletedYearOnce(t *testing.T) {
	// GIVEN: Active policy started 2021-04-01
	// WHEN: Accruing on 2024-05-01, then again the same day
	// THEN: Years 1-3 are credited once; the second run creates nothing

	ctx := context.Background()
	entries := generic.NewLedger(store.NewMemory())
	a := bonus.NewAccruer(testRates(t), entries, nil)
	h := activeHolder()

	latest, err := a.Accrue(ctx, h, date(2024, time.May, 1))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.PolicyYear)
	assert.Equal(t, "2024-04-01", latest.CreditedOn.String())

	again, err := a.Accrue(ctx, h, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Nil(t, again)

	all, err := bonus.List(ctx, entries, h.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, b := range all {
		assert.Equal(t, i+1, b.PolicyYear)
		assert.True(t, b.Amount.Equal(dec("20000")))
	}

	total, err := entries.Total(ctx, h.ID, generic.AccountBonus, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("60000")))
}

func TestAccrue_BeforeFirstAnniversary(t *testing.T) {
	entries := generic.NewLedger(store.NewMemory())
	a := bonus.NewAccruer(testRates(t), entries, nil)

	latest, err := a.Accrue(context.Background(), activeHolder(), date(2022, time.March, 31))
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestAccrue_CappedAtTerm(t *testing.T) {
	ctx := context.Background()
	entries := generic.NewLedger(store.NewMemory())
	a := bonus.NewAccruer(testRates(t), entries, nil)
	h := activeHolder()
	h.DurationYears = 5

	_, err := a.Accrue(ctx, h, date(2035, time.January, 1))
	require.NoError(t, err)

	all, err := bonus.List(ctx, entries, h.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestAccrue_OnlyActivePolicies(t *testing.T) {
	entries := generic.NewLedger(store.NewMemory())
	a := bonus.NewAccruer(testRates(t), entries, nil)
	h := activeHolder()
	h.Status = policy.StatusCancelled

	latest, err := a.Accrue(context.Background(), h, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestAnniversarySchedule_Window(t *testing.T) {
	s := &bonus.AnniversarySchedule{Start: date(2020, time.February, 29), Term: 10, Amount: dec("1")}
	events := s.GenerateAccruals(date(2021, time.January, 1), date(2023, time.March, 1))

	require.Len(t, events, 3)
	assert.Equal(t, "2021-02-28", events[0].At.String())
	assert.Equal(t, "2023-02-28", events[2].At.String())
	assert.True(t, generic.Sum(events).Equal(dec("3")))
}
