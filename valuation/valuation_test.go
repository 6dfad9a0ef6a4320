package valuation_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/generic/store"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/ratetable"
	"github.com/warp/policy-engine/valuation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func testRates(t *testing.T) *ratetable.Set {
	t.Helper()
	s := ratetable.NewSet()
	require.NoError(t, s.AddGSV(ratetable.GSVRate{Band: ratetable.Band{Min: 3, Max: 10}, ProductCode: "END", Rate: dec("30")}))
	require.NoError(t, s.AddGSV(ratetable.GSVRate{Band: ratetable.Band{Min: 3, Max: 10}, ProductCode: "TRM", Rate: dec("30")}))
	require.NoError(t, s.AddSSV(ratetable.SSVConfig{Band: ratetable.Band{Min: 3, Max: 10}, ProductCode: "END", Factor: dec("40"), EligibilityYears: 3}))
	require.NoError(t, s.AddSSV(ratetable.SSVConfig{Band: ratetable.Band{Min: 3, Max: 10}, ProductCode: "TRM", Factor: dec("40"), EligibilityYears: 0}))
	return s
}

type fixture struct {
	engine  *valuation.Engine
	entries generic.Ledger
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	entries := generic.NewLedger(store.NewMemory())
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return fixture{
		engine:  valuation.New(testRates(t), entries, logger),
		entries: entries,
		logs:    logs,
	}
}

func creditBonus(t *testing.T, entries generic.Ledger, holderID generic.HolderID, year int, at generic.Date, amount string) {
	t.Helper()
	require.NoError(t, entries.Append(context.Background(), generic.Entry{
		ID:             generic.EntryID(fmt.Sprintf("%s-bonus-%d", holderID, year)),
		HolderID:       holderID,
		Account:        generic.AccountBonus,
		Type:           generic.EntryBonusCredit,
		EffectiveAt:    at,
		Amount:         dec(amount),
		IdempotencyKey: fmt.Sprintf("bonus:%s:%d", holderID, year),
	}))
}

func ledger(product string, typ policy.Type) *premium.Ledger {
	return &premium.Ledger{
		HolderID:      "ph-1",
		ProductCode:   product,
		PolicyType:    typ,
		Interval:      policy.IntervalAnnual,
		StartDate:     date(2020, time.January, 1),
		AnnualPremium: dec("3000"),
		TotalPaid:     dec("12000"),
		PaymentCount:  4,
	}
}

// =============================================================================
// GSV
// =============================================================================

func TestGSV_ExcessPremiumTimesRate(t *testing.T) {
	// GIVEN: 3 completed years, 12000 paid, annual 3000, GSV rate 30%
	// THEN: (12000 - 3000) × 30% = 2700.00

	f := newFixture(t)
	gsv, err := f.engine.GSV(context.Background(), ledger("END", policy.TypeEndowment), date(2023, time.June, 1))
	require.NoError(t, err)
	assertMoney(t, "2700.00", gsv)
}

func TestGSV_ZeroOutsideBands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, asOf := range []generic.Date{date(2020, time.June, 1), date(2022, time.December, 30), date(2031, time.January, 15)} {
		gsv, err := f.engine.GSV(ctx, ledger("END", policy.TypeEndowment), asOf)
		require.NoError(t, err)
		assert.True(t, gsv.IsZero(), "as of %s", asOf)
		assert.Equal(t, "0.00", gsv.StringFixed(2))
	}
}

func TestGSV_NeverNegative(t *testing.T) {
	f := newFixture(t)
	l := ledger("END", policy.TypeEndowment)
	l.TotalPaid = dec("1000")

	gsv, err := f.engine.GSV(context.Background(), l, date(2023, time.June, 1))
	require.NoError(t, err)
	assert.True(t, gsv.IsZero())
}

// =============================================================================
// SSV
// =============================================================================

func TestSSV_TermIsAlwaysZero(t *testing.T) {
	f := newFixture(t)
	creditBonus(t, f.entries, "ph-1", 1, date(2021, time.January, 1), "20000")

	ssv, err := f.engine.SSV(context.Background(), ledger("TRM", policy.TypeTerm), date(2023, time.June, 1))
	require.NoError(t, err)
	assert.True(t, ssv.IsZero())
}

func TestSSV_EndowmentAddsBonuses(t *testing.T) {
	// GIVEN: 12000 paid across 4 payments, factor 40%, one 20000 bonus
	// THEN: 4800 + 20000 = 24800.00

	f := newFixture(t)
	creditBonus(t, f.entries, "ph-1", 1, date(2021, time.January, 1), "20000")

	ssv, err := f.engine.SSV(context.Background(), ledger("END", policy.TypeEndowment), date(2023, time.June, 1))
	require.NoError(t, err)
	assertMoney(t, "24800.00", ssv)
}

func TestSSV_RequiresEligiblePaymentCount(t *testing.T) {
	f := newFixture(t)
	l := ledger("END", policy.TypeEndowment)
	l.PaymentCount = 2

	ssv, err := f.engine.SSV(context.Background(), l, date(2023, time.June, 1))
	require.NoError(t, err)
	assert.True(t, ssv.IsZero())
}

// =============================================================================
// MATURITY
// =============================================================================

func holder(status policy.Status) (*policy.Holder, policy.Contract) {
	h := &policy.Holder{
		ID:            "ph-1",
		ProductCode:   "END",
		SumAssured:    dec("500000"),
		DurationYears: 10,
		Status:        status,
		StartDate:     date(2020, time.January, 1),
	}
	c := policy.Contract{
		Code:                   "END",
		Type:                   policy.TypeEndowment,
		BaseMultiplier:         dec("1"),
		GuaranteedInterestRate: dec("0.04"),
		TerminalBonusRate:      dec("0.1"),
	}
	return h, c
}

func TestEstimatedMaturity_CompoundsGuaranteedAdditions(t *testing.T) {
	// 500000 + 3000 × ((1.04^10 - 1) / 0.04) + 500000 × 0.045 × 10 + 500000 × 0.1
	f := newFixture(t)
	h, c := holder(policy.StatusActive)

	got := f.engine.EstimatedMaturity(h, c, ledger("END", policy.TypeEndowment))
	assertMoney(t, "811018.32", got)
}

func TestEstimatedMaturity_ZeroRateUsesAnnualTimesTerm(t *testing.T) {
	f := newFixture(t)
	h, c := holder(policy.StatusActive)
	c.GuaranteedInterestRate = decimal.Zero
	c.TerminalBonusRate = decimal.Zero

	got := f.engine.EstimatedMaturity(h, c, ledger("END", policy.TypeEndowment))
	assertMoney(t, "755000.00", got)
}

func TestGuaranteedAdditions_ComputationErrorFallsBack(t *testing.T) {
	// GIVEN: A term beyond the compounding limit
	// WHEN: Computing guaranteed additions
	// THEN: AnnuityFactor fails with ComputationError, the engine logs a
	//       warning and falls back to annual × term

	_, err := valuation.AnnuityFactor(dec("0.04"), valuation.MaxCompoundingTerm+50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrComputation))

	f := newFixture(t)
	ga := f.engine.GuaranteedAdditions("ph-9", dec("3000"), dec("0.04"), valuation.MaxCompoundingTerm+50)
	assertMoney(t, "450000", ga)
	assert.Contains(t, f.logs.String(), "level=WARN")
	assert.Contains(t, f.logs.String(), "holder_id=ph-9")
}

func TestActualMaturity_OnlyForActiveOrMatured(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creditBonus(t, f.entries, "ph-1", 1, date(2021, time.January, 1), "20000")

	h, c := holder(policy.StatusPending)
	got, err := f.engine.ActualMaturity(ctx, h, c, ledger("END", policy.TypeEndowment), date(2023, time.January, 1))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	h.Status = policy.StatusActive
	c.GuaranteedInterestRate = decimal.Zero
	got, err = f.engine.ActualMaturity(ctx, h, c, ledger("END", policy.TypeEndowment), date(2023, time.January, 1))
	require.NoError(t, err)
	// 500000 + 3000 × 10 + 20000 + 50000
	assertMoney(t, "600000.00", got)
}

func TestMaturity_UnknownMode(t *testing.T) {
	f := newFixture(t)
	h, c := holder(policy.StatusActive)
	_, err := f.engine.Maturity(context.Background(), "guess", h, c, nil, date(2023, time.January, 1))
	assert.True(t, errors.Is(err, generic.ErrValidation))
}
