package policy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func endowment() policy.Contract {
	return policy.Contract{
		Code:           "END",
		Name:           "Endowment 10",
		Type:           policy.TypeEndowment,
		BaseMultiplier: dec("1.0"),
		MinSumAssured:  dec("100000"),
		MaxSumAssured:  dec("5000000"),
	}
}

func holder() *policy.Holder {
	return &policy.Holder{
		ID:              "ph-1",
		ProductCode:     "END",
		CompanyCode:     "1",
		BranchCode:      "2",
		SumAssured:      dec("500000"),
		DurationYears:   10,
		DateOfBirth:     date(1990, time.June, 15),
		PaymentInterval: policy.IntervalQuarterly,
		Status:          policy.StatusPending,
		StartDate:       date(2024, time.January, 31),
	}
}

// =============================================================================
// CONTRACT
// =============================================================================

func TestContract_TermRequiresUnitMultiplier(t *testing.T) {
	c := endowment()
	c.Type = policy.TypeTerm
	c.BaseMultiplier = dec("1.5")

	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrValidation))

	c.BaseMultiplier = dec("1.00")
	assert.NoError(t, c.Validate())
}

func TestContract_RiderCharges(t *testing.T) {
	c := endowment()
	c.IncludeADB = true
	c.ADBPercentage = dec("0.5")
	c.PTDPercentage = dec("0.3")

	adb, ptd := c.RiderCharges(dec("500000"))
	assert.True(t, adb.Equal(dec("2500")), "adb = %s", adb)
	assert.True(t, ptd.IsZero(), "ptd rider not included")
}

func TestInterval_CountsAndMonths(t *testing.T) {
	tests := []struct {
		interval policy.Interval
		count    int
		months   int
	}{
		{policy.IntervalQuarterly, 4, 3},
		{policy.IntervalSemiAnnual, 2, 6},
		{policy.IntervalAnnual, 1, 12},
		{policy.IntervalSingle, 1, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.interval), func(t *testing.T) {
			assert.Equal(t, tt.count, tt.interval.Count())
			assert.Equal(t, tt.months, tt.interval.Months())
		})
	}
}

// =============================================================================
// HOLDER VALIDATION
// =============================================================================

func TestHolder_Validate(t *testing.T) {
	asOf := date(2024, time.January, 31)

	tests := []struct {
		name    string
		mutate  func(h *policy.Holder)
		field   string
		wantErr bool
	}{
		{name: "valid", mutate: func(h *policy.Holder) {}},
		{name: "sum assured below minimum", mutate: func(h *policy.Holder) { h.SumAssured = dec("99999.99") }, field: "sum_assured", wantErr: true},
		{name: "sum assured above maximum", mutate: func(h *policy.Holder) { h.SumAssured = dec("5000000.01") }, field: "sum_assured", wantErr: true},
		{name: "sum assured at maximum", mutate: func(h *policy.Holder) { h.SumAssured = dec("5000000") }},
		{name: "too young", mutate: func(h *policy.Holder) { h.DateOfBirth = date(2006, time.February, 1) }, field: "date_of_birth", wantErr: true},
		{name: "exactly 18", mutate: func(h *policy.Holder) { h.DateOfBirth = date(2006, time.January, 31) }},
		{name: "exactly 60", mutate: func(h *policy.Holder) { h.DateOfBirth = date(1963, time.February, 1) }},
		{name: "61", mutate: func(h *policy.Holder) { h.DateOfBirth = date(1963, time.January, 31) }, field: "date_of_birth", wantErr: true},
		{name: "zero term", mutate: func(h *policy.Holder) { h.DurationYears = 0 }, field: "duration_years", wantErr: true},
		{name: "bad interval", mutate: func(h *policy.Holder) { h.PaymentInterval = "monthly" }, field: "payment_interval", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := holder()
			tt.mutate(h)

			err := h.Validate(endowment(), asOf)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *generic.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

// =============================================================================
// STATUS MACHINE + POLICY NUMBER
// =============================================================================

func TestHolder_ActivationAssignsNumberOnce(t *testing.T) {
	// GIVEN: A pending policy and an existing number 12END0007 under the same prefix
	// WHEN: It is approved then activated
	// THEN: It receives 12END0008 and the maturity date is start + term

	h := holder()

	assigned, err := h.Transition(policy.StatusApproved, "")
	require.NoError(t, err)
	assert.False(t, assigned)
	assert.Empty(t, h.PolicyNumber)

	assigned, err = h.Transition(policy.StatusActive, "12END0007")
	require.NoError(t, err)
	assert.True(t, assigned)
	assert.Equal(t, "12END0008", h.PolicyNumber)
	assert.Equal(t, "2034-01-31", h.MaturityDate.String())

	// Matured keeps the number
	_, err = h.Transition(policy.StatusMatured, "12END0099")
	require.NoError(t, err)
	assert.Equal(t, "12END0008", h.PolicyNumber)
}

func TestHolder_TerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []policy.Status{policy.StatusMatured, policy.StatusCancelled, policy.StatusExpired, policy.StatusRejected} {
		h := holder()
		h.Status = s

		_, err := h.Transition(policy.StatusActive, "")
		assert.True(t, errors.Is(err, generic.ErrInvalidTransition), "status %s", s)
		assert.True(t, s.Terminal())
	}
}

func TestNextNumber(t *testing.T) {
	assert.Equal(t, "12END0001", policy.NextNumber("12END", ""))
	assert.Equal(t, "12END0001", policy.NextNumber("12END", "12ENDabc"))
	assert.Equal(t, "12END0043", policy.NextNumber("12END", "12END0042"))
}

func TestMaturityFor_LeapDayClamps(t *testing.T) {
	assert.Equal(t, "2025-02-28", policy.MaturityFor(date(2024, time.February, 29), 1).String())
}
