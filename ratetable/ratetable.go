/*
Package ratetable holds the actuarial reference data the engines read.

TABLES:
  - Mortality:  age band -> rate (% of sum assured)
  - Duration:   policy type + term band -> factor (Endowment only)
  - GSV:        product + elapsed-years band -> rate (%)
  - SSV:        product + elapsed-years band -> factor (%) + eligibility years
  - Bonus:      product + declaration year + term band -> bonus per thousand

Every band is closed: Min <= x <= Max. Bands in the same group must not
overlap. Lookups that find no band return a *generic.RateNotFoundError;
callers decide whether that means zero (read side) or a failure (issuance).

IMPLEMENTATIONS OF Source:
  - Set: in-memory tables, validated on insert
  - Cached: go-cache in front of any Source
  - store/sqlite: persisted tables
*/
package ratetable

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
)

// Table names used in RateNotFoundError.
const (
	TableMortality = "mortality"
	TableDuration  = "duration factor"
	TableGSV       = "gsv"
	TableSSV       = "ssv"
	TableBonus     = "bonus"
)

// =============================================================================
// BAND - Closed integer range
// =============================================================================

type Band struct {
	Min int
	Max int
}

func (b Band) Contains(x int) bool {
	return b.Min <= x && x <= b.Max
}

// Overlaps treats shared endpoints as overlap: [1,5] and [5,9] overlap.
func (b Band) Overlaps(o Band) bool {
	return b.Min <= o.Max && o.Min <= b.Max
}

// OverlapsInterior ignores shared endpoints: [1,5] and [5,9] do not overlap.
func (b Band) OverlapsInterior(o Band) bool {
	return b.Min < o.Max && o.Min < b.Max
}

func (b Band) String() string {
	return fmt.Sprintf("%d-%d", b.Min, b.Max)
}

func (b Band) validate(allowPoint bool) error {
	if b.Min < 0 {
		return generic.Invalid("min", "band minimum cannot be negative")
	}
	if allowPoint && b.Min > b.Max {
		return generic.Invalid("max", "maximum must be greater than or equal to minimum (%s)", b)
	}
	if !allowPoint && b.Min >= b.Max {
		return generic.Invalid("max", "minimum must be less than maximum (%s)", b)
	}
	return nil
}

// =============================================================================
// ROWS
// =============================================================================

type MortalityRate struct {
	Band
	Rate decimal.Decimal
}

type DurationFactor struct {
	Band
	PolicyType policy.Type
	Factor     decimal.Decimal
}

type GSVRate struct {
	Band
	ProductCode string
	Rate        decimal.Decimal
}

type SSVConfig struct {
	Band
	ProductCode      string
	Factor           decimal.Decimal
	EligibilityYears int
}

type BonusRate struct {
	Band
	ProductCode      string
	Year             int
	BonusPerThousand decimal.Decimal
}

// =============================================================================
// VALIDATION - Shared by Set and the SQLite store
// =============================================================================

func (r MortalityRate) Validate(existing []MortalityRate) error {
	if err := r.Band.validate(true); err != nil {
		return err
	}
	if r.Rate.IsNegative() {
		return generic.Invalid("rate", "cannot be negative")
	}
	for _, e := range existing {
		if e.Overlaps(r.Band) {
			return generic.Invalid("band", "age band %s overlaps existing band %s", r.Band, e.Band)
		}
	}
	return nil
}

func (r DurationFactor) Validate(existing []DurationFactor) error {
	if err := r.Band.validate(false); err != nil {
		return err
	}
	if !r.PolicyType.Valid() {
		return generic.Invalid("policy_type", "unsupported policy type %q", r.PolicyType)
	}
	if r.Factor.IsNegative() {
		return generic.Invalid("factor", "cannot be negative")
	}
	for _, e := range existing {
		if e.PolicyType == r.PolicyType && e.Overlaps(r.Band) {
			return generic.Invalid("band", "duration band %s overlaps existing band %s for %s", r.Band, e.Band, r.PolicyType)
		}
	}
	return nil
}

// Validate allows GSV bands to touch at their endpoints; the lower band wins
// a lookup on the shared year.
func (r GSVRate) Validate(existing []GSVRate) error {
	if err := r.Band.validate(false); err != nil {
		return err
	}
	if r.Rate.IsNegative() {
		return generic.Invalid("rate", "cannot be negative")
	}
	for _, e := range existing {
		if e.ProductCode == r.ProductCode && e.OverlapsInterior(r.Band) {
			return generic.Invalid("band", "GSV year ranges cannot overlap for the same policy (%s vs %s)", r.Band, e.Band)
		}
	}
	return nil
}

func (r SSVConfig) Validate(existing []SSVConfig) error {
	if err := r.Band.validate(false); err != nil {
		return err
	}
	if r.Factor.IsNegative() {
		return generic.Invalid("factor", "cannot be negative")
	}
	if r.EligibilityYears < 0 {
		return generic.Invalid("eligibility_years", "cannot be negative")
	}
	for _, e := range existing {
		if e.ProductCode == r.ProductCode && e.Overlaps(r.Band) {
			return generic.Invalid("band", "SSV year ranges cannot overlap for the same policy (%s vs %s)", r.Band, e.Band)
		}
	}
	return nil
}

func (r BonusRate) Validate(existing []BonusRate) error {
	if err := r.Band.validate(true); err != nil {
		return err
	}
	if r.BonusPerThousand.IsNegative() {
		return generic.Invalid("bonus_per_thousand", "cannot be negative")
	}
	for _, e := range existing {
		if e.ProductCode == r.ProductCode && e.Year == r.Year && e.Overlaps(r.Band) {
			return generic.Invalid("band", "duration range %s overlaps existing range %s for this policy in year %d", r.Band, e.Band, r.Year)
		}
	}
	return nil
}

// =============================================================================
// SOURCE - Read interface consumed by the engines
// =============================================================================

type Source interface {
	Mortality(ctx context.Context, age int) (MortalityRate, error)
	DurationFactor(ctx context.Context, t policy.Type, years int) (DurationFactor, error)
	GSVRate(ctx context.Context, productCode string, years int) (GSVRate, error)
	SSVConfig(ctx context.Context, productCode string, years int) (SSVConfig, error)
	// BonusRate picks the latest declaration year among bands covering the term.
	BonusRate(ctx context.Context, productCode string, termYears int) (BonusRate, error)
}

func notFound(table, format string, args ...any) error {
	return &generic.RateNotFoundError{Table: table, Key: fmt.Sprintf(format, args...)}
}

// =============================================================================
// SELECTION - Shared lookup rules
// =============================================================================

func SelectMortality(rows []MortalityRate, age int) (MortalityRate, error) {
	for _, r := range rows {
		if r.Contains(age) {
			return r, nil
		}
	}
	return MortalityRate{}, notFound(TableMortality, "age %d", age)
}

func SelectDuration(rows []DurationFactor, t policy.Type, years int) (DurationFactor, error) {
	for _, r := range rows {
		if r.PolicyType == t && r.Contains(years) {
			return r, nil
		}
	}
	return DurationFactor{}, notFound(TableDuration, "%s term %d", t, years)
}

// SelectGSV returns the band with the lowest minimum covering the year.
func SelectGSV(rows []GSVRate, productCode string, years int) (GSVRate, error) {
	var best *GSVRate
	for i := range rows {
		r := rows[i]
		if r.ProductCode != productCode || !r.Contains(years) {
			continue
		}
		if best == nil || r.Min < best.Min {
			best = &rows[i]
		}
	}
	if best == nil {
		return GSVRate{}, notFound(TableGSV, "%s year %d", productCode, years)
	}
	return *best, nil
}

func SelectSSV(rows []SSVConfig, productCode string, years int) (SSVConfig, error) {
	for _, r := range rows {
		if r.ProductCode == productCode && r.Contains(years) {
			return r, nil
		}
	}
	return SSVConfig{}, notFound(TableSSV, "%s year %d", productCode, years)
}

func SelectBonus(rows []BonusRate, productCode string, termYears int) (BonusRate, error) {
	var best *BonusRate
	for i := range rows {
		r := rows[i]
		if r.ProductCode != productCode || !r.Contains(termYears) {
			continue
		}
		if best == nil || r.Year > best.Year {
			best = &rows[i]
		}
	}
	if best == nil {
		return BonusRate{}, notFound(TableBonus, "%s term %d", productCode, termYears)
	}
	return *best, nil
}
