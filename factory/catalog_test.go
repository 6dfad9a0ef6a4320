package factory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/factory"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
)

func TestDefaultCatalog_Parses(t *testing.T) {
	cat, err := factory.DefaultCatalog()
	require.NoError(t, err)

	assert.Len(t, cat.Contracts, 3)
	assert.Len(t, cat.Mortality, 3)
	assert.Len(t, cat.Agents, 1)

	end, ok := cat.Contract("END")
	require.True(t, ok)
	assert.Equal(t, policy.TypeEndowment, end.Type)
	assert.True(t, end.GuaranteedInterestRate.Equal(decimal.RequireFromString("0.04")))

	_, ok = cat.Contract("NOPE")
	assert.False(t, ok)
}

func TestDefaultCatalog_RatesServeTheReferenceScenario(t *testing.T) {
	// GIVEN: The default catalog
	// THEN: Age 40 maps to 0.5%, Endowment 10 years to factor 1.2

	cat, err := factory.DefaultCatalog()
	require.NoError(t, err)
	src, err := cat.Source()
	require.NoError(t, err)
	ctx := context.Background()

	m, err := src.Mortality(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, "0.5", m.Rate.String())

	d, err := src.DurationFactor(ctx, policy.TypeEndowment, 10)
	require.NoError(t, err)
	assert.Equal(t, "1.2", d.Factor.String())

	// Touching GSV bands: year 5 belongs to the lower band
	g, err := src.GSVRate(ctx, "END", 5)
	require.NoError(t, err)
	assert.Equal(t, "30", g.Rate.String())
}

func TestParse_RejectsOverlappingBands(t *testing.T) {
	raw := `{
	  "mortality": [
	    {"min_age": 18, "max_age": 30, "rate": "0.3"},
	    {"min_age": 30, "max_age": 45, "rate": "0.5"}
	  ]
	}`
	_, err := factory.Parse([]byte(raw))
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrValidation))
	assert.Contains(t, err.Error(), "mortality[1]")
}

func TestParse_RejectsTermMultiplier(t *testing.T) {
	raw := `{"products": [{"code": "TRM", "type": "Term", "base_multiplier": "1.5",
	  "min_sum_assured": "1", "max_sum_assured": "2"}]}`
	_, err := factory.Parse([]byte(raw))
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestParse_DuplicateProduct(t *testing.T) {
	p := factory.TermProductJSON("TRM", "Term")
	_, err := factory.Parse([]byte(`{"products": [` + p + `,` + p + `]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined twice")
}

func TestProductPresets_RoundTrip(t *testing.T) {
	raw := factory.EndowmentProductJSON("E20", "Endowment 20", decimal.RequireFromString("1.3"), decimal.RequireFromString("0.05"), decimal.RequireFromString("0.2"))

	var p factory.ProductJSON
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "E20", p.Code)
	assert.True(t, p.BaseMultiplier.Equal(decimal.RequireFromString("1.3")))

	cat, err := factory.Parse([]byte(`{"products": [` + raw + `]}`))
	require.NoError(t, err)
	assert.Len(t, cat.Contracts, 1)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := factory.Parse([]byte(`{"products": [`))
	assert.Error(t, err)
}
