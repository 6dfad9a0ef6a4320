/*
Package policy defines insurance products and the policies sold against them.

KEY CONCEPTS:
  - Contract: A product definition (Term or Endowment) with multiplier,
    sum-assured bounds, riders, guaranteed interest and terminal bonus rates
  - Holder: One policy instance for one customer, with its own sum assured,
    term, payment interval and lifecycle status
  - Status machine: Pending -> Approved -> Active -> Matured/Cancelled/Expired

Contracts are immutable once policies are sold against them. Rates stored on
the contract (GuaranteedInterestRate, TerminalBonusRate) are fractions:
0.04 means 4%. Rider percentages are percentages: 0.5 means 0.5% of sum assured.
*/
package policy

import (
	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
)

// =============================================================================
// PRODUCT TYPE
// =============================================================================

type Type string

const (
	TypeTerm      Type = "Term"
	TypeEndowment Type = "Endowment"
)

func (t Type) Valid() bool {
	switch t {
	case TypeTerm, TypeEndowment:
		return true
	}
	return false
}

// =============================================================================
// PAYMENT INTERVAL
// =============================================================================

type Interval string

const (
	IntervalQuarterly  Interval = "quarterly"
	IntervalSemiAnnual Interval = "semi_annual"
	IntervalAnnual     Interval = "annual"
	IntervalSingle     Interval = "single"
)

func (i Interval) Valid() bool {
	switch i {
	case IntervalQuarterly, IntervalSemiAnnual, IntervalAnnual, IntervalSingle:
		return true
	}
	return false
}

// Count is the number of installments per year.
func (i Interval) Count() int {
	switch i {
	case IntervalQuarterly:
		return 4
	case IntervalSemiAnnual:
		return 2
	case IntervalAnnual, IntervalSingle:
		return 1
	}
	return 1
}

// Months between due dates. Zero for single-premium policies.
func (i Interval) Months() int {
	switch i {
	case IntervalQuarterly:
		return 3
	case IntervalSemiAnnual:
		return 6
	case IntervalAnnual:
		return 12
	}
	return 0
}

// =============================================================================
// CONTRACT - Product definition
// =============================================================================

type Contract struct {
	Code           string
	Name           string
	Type           Type
	BaseMultiplier decimal.Decimal
	MinSumAssured  decimal.Decimal
	MaxSumAssured  decimal.Decimal

	IncludeADB    bool
	IncludePTD    bool
	ADBPercentage decimal.Decimal
	PTDPercentage decimal.Decimal

	GuaranteedInterestRate decimal.Decimal // fraction
	TerminalBonusRate      decimal.Decimal // fraction
}

// Validate checks the product rules. Term products never scale the base premium.
func (c Contract) Validate() error {
	if c.Code == "" {
		return generic.Invalid("code", "product code is required")
	}
	if !c.Type.Valid() {
		return generic.Invalid("type", "unsupported policy type %q", c.Type)
	}
	if c.Type == TypeTerm && !c.BaseMultiplier.Equal(decimal.NewFromInt(1)) {
		return generic.Invalid("base_multiplier", "base multiplier for Term insurance must be 1.0, got %s", c.BaseMultiplier)
	}
	if !c.BaseMultiplier.IsPositive() {
		return generic.Invalid("base_multiplier", "must be positive")
	}
	if c.MinSumAssured.IsNegative() || c.MaxSumAssured.LessThan(c.MinSumAssured) {
		return generic.Invalid("sum_assured", "bounds [%s, %s] are invalid", c.MinSumAssured, c.MaxSumAssured)
	}
	if c.ADBPercentage.IsNegative() || c.PTDPercentage.IsNegative() {
		return generic.Invalid("riders", "rider percentages cannot be negative")
	}
	if c.GuaranteedInterestRate.IsNegative() || c.TerminalBonusRate.IsNegative() {
		return generic.Invalid("rates", "guaranteed interest and terminal bonus rates cannot be negative")
	}
	return nil
}

// RiderCharges returns the annual ADB and PTD charges for a sum assured.
func (c Contract) RiderCharges(sumAssured decimal.Decimal) (adb, ptd decimal.Decimal) {
	adb, ptd = decimal.Zero, decimal.Zero
	if c.IncludeADB {
		adb = generic.Percent(sumAssured, c.ADBPercentage)
	}
	if c.IncludePTD {
		ptd = generic.Percent(sumAssured, c.PTDPercentage)
	}
	return adb, ptd
}
