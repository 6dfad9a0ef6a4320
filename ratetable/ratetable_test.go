package ratetable_test

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
	"github.com/warp/policy-engine/ratetable"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func band(min, max int) ratetable.Band { return ratetable.Band{Min: min, Max: max} }

// =============================================================================
// OVERLAP RULES
// =============================================================================

func TestSet_MortalityBandsCannotOverlap(t *testing.T) {
	s := ratetable.NewSet()
	require.NoError(t, s.AddMortality(ratetable.MortalityRate{Band: band(18, 30), Rate: dec("0.4")}))

	err := s.AddMortality(ratetable.MortalityRate{Band: band(30, 40), Rate: dec("0.5")})
	assert.True(t, errors.Is(err, generic.ErrValidation), "shared endpoint 30 overlaps")

	require.NoError(t, s.AddMortality(ratetable.MortalityRate{Band: band(31, 40), Rate: dec("0.5")}))
	// Single-age band is allowed
	require.NoError(t, s.AddMortality(ratetable.MortalityRate{Band: band(41, 41), Rate: dec("0.6")}))
}

func TestSet_DurationBandsRequireMinBelowMax(t *testing.T) {
	s := ratetable.NewSet()
	err := s.AddDuration(ratetable.DurationFactor{Band: band(5, 5), PolicyType: policy.TypeEndowment, Factor: dec("1.2")})
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestSet_DurationBandsAreGroupedByPolicyType(t *testing.T) {
	s := ratetable.NewSet()
	require.NoError(t, s.AddDuration(ratetable.DurationFactor{Band: band(5, 15), PolicyType: policy.TypeEndowment, Factor: dec("1.2")}))
	require.NoError(t, s.AddDuration(ratetable.DurationFactor{Band: band(5, 15), PolicyType: policy.TypeTerm, Factor: dec("1.0")}))

	err := s.AddDuration(ratetable.DurationFactor{Band: band(10, 20), PolicyType: policy.TypeEndowment, Factor: dec("1.3")})
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestSet_GSVBandsMayTouch(t *testing.T) {
	// GIVEN: GSV bands 1-5 and 5-10 for the same product
	// WHEN: Looking up year 5
	// THEN: The lower band wins

	s := ratetable.NewSet()
	ctx := context.Background()
	require.NoError(t, s.AddGSV(ratetable.GSVRate{Band: band(5, 10), ProductCode: "END", Rate: dec("50")}))
	require.NoError(t, s.AddGSV(ratetable.GSVRate{Band: band(1, 5), ProductCode: "END", Rate: dec("30")}))

	r, err := s.GSVRate(ctx, "END", 5)
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("30")))

	err = s.AddGSV(ratetable.GSVRate{Band: band(8, 12), ProductCode: "END", Rate: dec("60")})
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func TestSet_SSVBandsCannotTouch(t *testing.T) {
	s := ratetable.NewSet()
	require.NoError(t, s.AddSSV(ratetable.SSVConfig{Band: band(3, 6), ProductCode: "END", Factor: dec("40"), EligibilityYears: 3}))
	err := s.AddSSV(ratetable.SSVConfig{Band: band(6, 9), ProductCode: "END", Factor: dec("50"), EligibilityYears: 3})
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

// =============================================================================
// LOOKUPS
// =============================================================================

func TestSet_MissingBandIsRateNotFound(t *testing.T) {
	s := ratetable.NewSet()
	_, err := s.Mortality(context.Background(), 99)

	var rnf *generic.RateNotFoundError
	require.True(t, errors.As(err, &rnf))
	assert.Equal(t, ratetable.TableMortality, rnf.Table)
	assert.True(t, errors.Is(err, generic.ErrRateNotFound))
}

func TestSet_BonusRatePicksLatestYear(t *testing.T) {
	s := ratetable.NewSet()
	ctx := context.Background()
	require.NoError(t, s.AddBonus(ratetable.BonusRate{Band: band(5, 15), ProductCode: "END", Year: 2023, BonusPerThousand: dec("35")}))
	require.NoError(t, s.AddBonus(ratetable.BonusRate{Band: band(5, 15), ProductCode: "END", Year: 2024, BonusPerThousand: dec("40")}))
	require.NoError(t, s.AddBonus(ratetable.BonusRate{Band: band(16, 25), ProductCode: "END", Year: 2025, BonusPerThousand: dec("45")}))

	r, err := s.BonusRate(ctx, "END", 10)
	require.NoError(t, err)
	assert.Equal(t, 2024, r.Year)
	assert.True(t, r.BonusPerThousand.Equal(dec("40")))

	// Same year and overlapping band is rejected
	err = s.AddBonus(ratetable.BonusRate{Band: band(10, 12), ProductCode: "END", Year: 2024, BonusPerThousand: dec("1")})
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

// =============================================================================
// CACHE
// =============================================================================

type countingSource struct {
	*ratetable.Set
	mortalityCalls int
}

func (c *countingSource) Mortality(ctx context.Context, age int) (ratetable.MortalityRate, error) {
	c.mortalityCalls++
	return c.Set.Mortality(ctx, age)
}

func TestCached_HitsAreServedFromCache(t *testing.T) {
	src := &countingSource{Set: ratetable.NewSet()}
	require.NoError(t, src.AddMortality(ratetable.MortalityRate{Band: band(18, 40), Rate: dec("0.5")}))
	cached := ratetable.NewCached(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := cached.Mortality(ctx, 30)
		require.NoError(t, err)
		assert.True(t, r.Rate.Equal(dec("0.5")))
	}
	assert.Equal(t, 1, src.mortalityCalls)

	cached.Invalidate()
	_, err := cached.Mortality(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, src.mortalityCalls)
}

func TestCached_MissesAreNotCached(t *testing.T) {
	src := &countingSource{Set: ratetable.NewSet()}
	cached := ratetable.NewCached(src, time.Minute)
	ctx := context.Background()

	_, err := cached.Mortality(ctx, 30)
	require.True(t, errors.Is(err, generic.ErrRateNotFound))

	require.NoError(t, src.AddMortality(ratetable.MortalityRate{Band: band(18, 40), Rate: dec("0.5")}))
	r, err := cached.Mortality(ctx, 30)
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("0.5")))
}

func TestCached_WithSharesEntries(t *testing.T) {
	// GIVEN: A cache warmed through one source
	// WHEN: A view is bound to a second source
	// THEN: Hits come from the shared cache; misses load from the second source

	first := &countingSource{Set: ratetable.NewSet()}
	require.NoError(t, first.AddMortality(ratetable.MortalityRate{Band: band(18, 40), Rate: dec("0.5")}))
	second := &countingSource{Set: ratetable.NewSet()}
	require.NoError(t, second.AddMortality(ratetable.MortalityRate{Band: band(18, 60), Rate: dec("0.9")}))

	cached := ratetable.NewCached(first, time.Minute)
	ctx := context.Background()
	_, err := cached.Mortality(ctx, 30)
	require.NoError(t, err)

	view := cached.With(second)
	r, err := view.Mortality(ctx, 30)
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("0.5")))
	assert.Equal(t, 0, second.mortalityCalls)

	r, err = view.Mortality(ctx, 50)
	require.NoError(t, err)
	assert.True(t, r.Rate.Equal(dec("0.9")))
	assert.Equal(t, 1, second.mortalityCalls)
}
