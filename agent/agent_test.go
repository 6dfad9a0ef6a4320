package agent_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/generic"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNew_DefaultsCommissionRate(t *testing.T) {
	a, err := agent.New("ag-1", "A001", "01", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, a.CommissionRate.Equal(dec("5")))
	assert.True(t, a.Active)

	_, err = agent.New("ag-1", "", "01", decimal.Zero)
	assert.True(t, errors.Is(err, generic.ErrValidation))

	_, err = agent.New("ag-1", "A001", "01", dec("120"))
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestReport_KeyedByFirstOfMonth(t *testing.T) {
	a, err := agent.New("ag-1", "A001", "01", dec("7.5"))
	require.NoError(t, err)

	r := agent.NewReport(a, generic.NewDate(2024, time.June, 17))
	assert.Equal(t, "2024-06-01", r.ReportDate.String())
	assert.Equal(t, "2024-06", r.Period)
}

func TestRecordSaleAndPremium(t *testing.T) {
	// GIVEN: An agent on 7.5% commission
	// WHEN: One sale and two premium payments of 750.00 and 333.33
	// THEN: Commission 56.25 + 25.00 (24.99975 rounded)

	a, err := agent.New("ag-1", "A001", "01", dec("7.5"))
	require.NoError(t, err)
	asOf := generic.NewDate(2024, time.June, 17)
	r := agent.NewReport(a, asOf)

	a.RecordSale(r, asOf)
	assert.Equal(t, 1, a.TotalPoliciesSold)
	assert.Equal(t, 1, r.PoliciesSold)
	assert.Equal(t, asOf, a.LastPolicyDate)

	c1 := a.RecordPremium(r, dec("750.00"))
	c2 := a.RecordPremium(r, dec("333.33"))
	assert.Equal(t, "56.25", c1.StringFixed(2))
	assert.Equal(t, "25.00", c2.StringFixed(2))

	assert.True(t, a.TotalPremiumCollected.Equal(dec("1083.33")))
	assert.True(t, r.TotalPremium.Equal(dec("1083.33")))
	assert.True(t, r.CommissionEarned.Equal(dec("81.25")))
}
