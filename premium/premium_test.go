package premium_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/ratetable"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testRates(t *testing.T) *ratetable.Set {
	t.Helper()
	s := ratetable.NewSet()
	require.NoError(t, s.AddMortality(ratetable.MortalityRate{Band: ratetable.Band{Min: 18, Max: 40}, Rate: dec("0.5")}))
	require.NoError(t, s.AddMortality(ratetable.MortalityRate{Band: ratetable.Band{Min: 41, Max: 60}, Rate: dec("0.9")}))
	require.NoError(t, s.AddDuration(ratetable.DurationFactor{Band: ratetable.Band{Min: 5, Max: 15}, PolicyType: policy.TypeEndowment, Factor: dec("1.2")}))
	require.NoError(t, s.AddDuration(ratetable.DurationFactor{Band: ratetable.Band{Min: 5, Max: 30}, PolicyType: policy.TypeTerm, Factor: dec("1.5")}))
	return s
}

func endowment() policy.Contract {
	return policy.Contract{
		Code:           "END",
		Type:           policy.TypeEndowment,
		BaseMultiplier: dec("1.0"),
		MinSumAssured:  dec("100000"),
		MaxSumAssured:  dec("5000000"),
	}
}

func input(c policy.Contract, interval policy.Interval) premium.Input {
	return premium.Input{
		Contract:      c,
		SumAssured:    dec("500000"),
		Age:           35,
		DurationYears: 10,
		Interval:      interval,
	}
}

// =============================================================================
// COMPUTE
// =============================================================================

func TestCompute_EndowmentScenario(t *testing.T) {
	// GIVEN: Endowment, SA 500000, 10 years, mortality 0.5%, factor 1.2, multiplier 1.0
	// WHEN: Computing a quarterly premium
	// THEN: base 2500, annual 3000.00, quarterly 750.00

	q, err := premium.Compute(context.Background(), testRates(t), input(endowment(), policy.IntervalQuarterly))
	require.NoError(t, err)

	assertMoney(t, "2500", q.Base)
	assertMoney(t, "3000.00", q.Annual)
	assertMoney(t, "750.00", q.Interval)
	assert.Equal(t, int32(-2), q.Annual.Exponent(), "annual premium quantized to 2 places")
	assert.Equal(t, int32(-2), q.Interval.Exponent(), "interval premium quantized to 2 places")
}

func TestCompute_IsDeterministic(t *testing.T) {
	rates := testRates(t)
	ctx := context.Background()
	c := endowment()
	c.BaseMultiplier = dec("1.13")

	in := input(c, policy.IntervalSemiAnnual)
	in.SumAssured = dec("333333")

	first, err := premium.Compute(ctx, rates, in)
	require.NoError(t, err)
	second, err := premium.Compute(ctx, rates, in)
	require.NoError(t, err)

	assert.True(t, first.Annual.Equal(second.Annual))
	assert.True(t, first.Interval.Equal(second.Interval))
	// 333333 × 0.5% × 1.13 × 1.2 = 2259.99774 -> 2260.00; /2 = 1130.00
	assertMoney(t, "2260.00", first.Annual)
	assertMoney(t, "1130.00", first.Interval)
}

func TestCompute_TermIgnoresDurationFactor(t *testing.T) {
	c := endowment()
	c.Code = "TRM"
	c.Type = policy.TypeTerm

	q, err := premium.Compute(context.Background(), testRates(t), input(c, policy.IntervalAnnual))
	require.NoError(t, err)
	assertMoney(t, "2500.00", q.Annual)
	assertMoney(t, "2500.00", q.Interval)
}

func TestCompute_AddsRiderCharges(t *testing.T) {
	c := endowment()
	c.IncludeADB = true
	c.ADBPercentage = dec("0.1")
	c.IncludePTD = true
	c.PTDPercentage = dec("0.05")

	q, err := premium.Compute(context.Background(), testRates(t), input(c, policy.IntervalQuarterly))
	require.NoError(t, err)
	// 3000 + 500 + 250
	assertMoney(t, "3750.00", q.Annual)
	assertMoney(t, "937.50", q.Interval)
}

func TestCompute_MissingRateReturnsZeroAndError(t *testing.T) {
	tests := []struct {
		name  string
		age   int
		years int
		table string
	}{
		{"no mortality band", 70, 10, ratetable.TableMortality},
		{"no duration band", 35, 40, ratetable.TableDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(endowment(), policy.IntervalAnnual)
			in.Age = tt.age
			in.DurationYears = tt.years

			q, err := premium.Compute(context.Background(), testRates(t), in)
			var rnf *generic.RateNotFoundError
			require.True(t, errors.As(err, &rnf))
			assert.Equal(t, tt.table, rnf.Table)
			assert.True(t, q.Annual.IsZero())
			assert.True(t, q.Interval.IsZero())
		})
	}
}

// =============================================================================
// LEDGER
// =============================================================================

func newLedger(t *testing.T, interval policy.Interval, start generic.Date) *premium.Ledger {
	t.Helper()
	h := &policy.Holder{
		ID:              "ph-1",
		ProductCode:     "END",
		SumAssured:      dec("500000"),
		DurationYears:   10,
		PaymentInterval: interval,
		StartDate:       start,
	}
	q, err := premium.Compute(context.Background(), testRates(t), input(endowment(), interval))
	require.NoError(t, err)
	return premium.NewLedger(h, endowment(), q)
}

func TestLedger_Seed(t *testing.T) {
	l := newLedger(t, policy.IntervalQuarterly, date(2024, time.January, 31))

	assertMoney(t, "30000", l.TotalPremium)
	assertMoney(t, "30000", l.RemainingPremium)
	assert.Equal(t, "2024-04-30", l.NextDueDate.String())
	assert.Equal(t, premium.StatusUnpaid, l.Status)

	single := newLedger(t, policy.IntervalSingle, date(2024, time.January, 31))
	assertMoney(t, "3000.00", single.TotalPremium)
	assert.True(t, single.NextDueDate.IsZero())
}

func TestLedger_PaymentAdvancesDueDateWithClamping(t *testing.T) {
	// GIVEN: Quarterly ledger started Jan 31 (first due Apr 30)
	// WHEN: Paying on time twice
	// THEN: Due dates follow Jul 31, Oct 31 anchored on the start day

	ctx := context.Background()
	l := newLedger(t, policy.IntervalQuarterly, date(2024, time.January, 31))

	l1, pay, err := l.Apply(ctx, dec("750"), date(2024, time.April, 15), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-31", l1.NextDueDate.String())
	assert.Equal(t, "2024-04-30", pay.DueBefore.String())
	assertMoney(t, "750", l1.TotalPaid)
	assertMoney(t, "29250", l1.RemainingPremium)
	assert.Equal(t, premium.StatusPartiallyPaid, l1.Status)
	assert.Equal(t, 1, l1.PaymentCount)

	l2, _, err := l1.Apply(ctx, dec("750"), date(2024, time.July, 31), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-10-31", l2.NextDueDate.String())
	assertMoney(t, "1500", l2.TotalPaid)

	// Original ledger untouched
	assert.True(t, l.TotalPaid.IsZero())
	assert.Equal(t, 0, l.PaymentCount)
}

func TestLedger_FebruaryClamp(t *testing.T) {
	l := newLedger(t, policy.IntervalAnnual, date(2024, time.February, 29))
	assert.Equal(t, "2025-02-28", l.NextDueDate.String())
}

func TestLedger_OverpaymentRejectedAndLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, policy.IntervalQuarterly, date(2024, time.January, 1))
	before := *l

	next, _, err := l.Apply(ctx, dec("750.01"), date(2024, time.February, 1), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrValidation))
	assert.Nil(t, next)
	assert.Equal(t, before, *l)

	_, _, err = l.Apply(ctx, dec("0"), date(2024, time.February, 1), nil)
	assert.True(t, errors.Is(err, generic.ErrValidation))
	_, _, err = l.Apply(ctx, dec("-5"), date(2024, time.February, 1), nil)
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestLedger_LateFeeAssessedOncePerDueDate(t *testing.T) {
	// GIVEN: Quarterly ledger due 2024-04-01, interval premium 750
	// WHEN: A partial payment arrives late, then another before the new due date
	// THEN: A 15.00 fine is assessed once and paid first

	ctx := context.Background()
	l := newLedger(t, policy.IntervalQuarterly, date(2024, time.January, 1))
	require.Equal(t, "2024-04-01", l.NextDueDate.String())

	// 765.01 exceeds 750 + 15
	_, _, err := l.Apply(ctx, dec("765.01"), date(2024, time.April, 10), nil)
	require.True(t, errors.Is(err, generic.ErrValidation))

	l1, pay, err := l.Apply(ctx, dec("10"), date(2024, time.April, 10), nil)
	require.NoError(t, err)
	assertMoney(t, "15.00", pay.FineAssessed)
	assertMoney(t, "10", pay.FinePortion)
	assertMoney(t, "0", pay.PremiumPortion)
	assertMoney(t, "5", l1.FineDue)
	assertMoney(t, "0", l1.TotalPaid)
	assert.Equal(t, "2024-07-01", l1.NextDueDate.String())

	l2, pay, err := l1.Apply(ctx, dec("755"), date(2024, time.May, 1), nil)
	require.NoError(t, err)
	assertMoney(t, "0", pay.FineAssessed)
	assertMoney(t, "5", pay.FinePortion)
	assertMoney(t, "750", pay.PremiumPortion)
	assertMoney(t, "0", l2.FineDue)
	assertMoney(t, "15", l2.FinePaid)
	assertMoney(t, "750", l2.TotalPaid)
}

func TestLedger_SinglePremiumPaidInFull(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, policy.IntervalSingle, date(2024, time.January, 1))

	next, _, err := l.Apply(ctx, dec("3000.00"), date(2024, time.January, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, premium.StatusPaid, next.Status)
	assert.True(t, next.NextDueDate.IsZero())
	assertMoney(t, "0", next.RemainingPremium)

	_, _, err = next.Apply(ctx, dec("1"), date(2024, time.February, 1), nil)
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestLedger_TotalPaidIsMonotonic(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, policy.IntervalQuarterly, date(2020, time.January, 1))
	amounts := []string{"750", "100", "0.01", "649.99", "750", "300"}

	asOf := date(2020, time.February, 1)
	for i, a := range amounts {
		next, _, err := l.Apply(ctx, dec(a), asOf, nil)
		require.NoError(t, err, "payment %d", i)

		assert.True(t, next.TotalPaid.GreaterThanOrEqual(l.TotalPaid))
		want := generic.MaxZero(next.TotalPremium.Sub(next.TotalPaid))
		assert.True(t, want.Equal(next.RemainingPremium))
		l = next
	}
}

type fixedValuer struct{ gsv, ssv decimal.Decimal }

func (f fixedValuer) SurrenderValues(context.Context, *premium.Ledger, generic.Date) (decimal.Decimal, decimal.Decimal, error) {
	return f.gsv, f.ssv, nil
}

func TestLedger_ApplyRevaluesSurrenderValues(t *testing.T) {
	l := newLedger(t, policy.IntervalQuarterly, date(2024, time.January, 1))
	next, _, err := l.Apply(context.Background(), dec("750"), date(2024, time.February, 1), fixedValuer{gsv: dec("12"), ssv: dec("34")})
	require.NoError(t, err)
	assertMoney(t, "12", next.GSV)
	assertMoney(t, "34", next.SSV)
}
