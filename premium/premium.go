/*
premium.go - Premium computation

PURPOSE:
  Turns product, sum assured, age and term into an annual premium and the
  per-installment premium for the chosen payment interval.

FORMULA:
  base      = sum_assured × mortality_rate / 100
  adjusted  = base × base_multiplier × duration_factor   (Endowment)
            = base                                        (Term)
  annual    = round2(adjusted + adb_charge + ptd_charge)
  interval  = round2(annual / interval_count)

  Term products never apply the duration factor. The factor is still looked
  up for both types, so a missing band fails issuance for either.

EXAMPLE:
  Endowment, SA 500000, 10 years, mortality 0.5%, factor 1.2, multiplier 1.0
  base 2500 -> adjusted 3000.00 -> quarterly 750.00
*/
package premium

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/ratetable"
)

type Input struct {
	Contract      policy.Contract
	SumAssured    decimal.Decimal
	Age           int
	DurationYears int
	Interval      policy.Interval
}

// InputFor builds the input for a holder as of the issue day.
func InputFor(c policy.Contract, h *policy.Holder, asOf generic.Date) Input {
	return Input{
		Contract:      c,
		SumAssured:    h.SumAssured,
		Age:           h.Age(asOf),
		DurationYears: h.DurationYears,
		Interval:      h.PaymentInterval,
	}
}

// Quote is the computed premium with its components.
type Quote struct {
	Annual   decimal.Decimal
	Interval decimal.Decimal

	MortalityRate  decimal.Decimal
	DurationFactor decimal.Decimal
	Base           decimal.Decimal
	Adjusted       decimal.Decimal
	ADBCharge      decimal.Decimal
	PTDCharge      decimal.Decimal
}

// Compute is a pure function of its input and the rate tables. A missing
// mortality or duration band returns a zero quote and a RateNotFoundError.
func Compute(ctx context.Context, rates ratetable.Source, in Input) (Quote, error) {
	zero := Quote{Annual: decimal.Zero, Interval: decimal.Zero}

	if !in.SumAssured.IsPositive() {
		return zero, generic.Invalid("sum_assured", "must be positive")
	}
	if !in.Interval.Valid() {
		return zero, generic.Invalid("payment_interval", "unsupported interval %q", in.Interval)
	}

	mortality, err := rates.Mortality(ctx, in.Age)
	if err != nil {
		return zero, err
	}
	factor, err := rates.DurationFactor(ctx, in.Contract.Type, in.DurationYears)
	if err != nil {
		return zero, err
	}

	base := generic.Percent(in.SumAssured, mortality.Rate)

	var adjusted decimal.Decimal
	switch in.Contract.Type {
	case policy.TypeEndowment:
		adjusted = base.Mul(in.Contract.BaseMultiplier).Mul(factor.Factor)
	case policy.TypeTerm:
		adjusted = base
	default:
		return zero, generic.Invalid("type", "unsupported policy type %q", in.Contract.Type)
	}

	adb, ptd := in.Contract.RiderCharges(in.SumAssured)
	annual := generic.RoundMoney(adjusted.Add(adb).Add(ptd))
	interval := generic.RoundMoney(annual.Div(decimal.NewFromInt(int64(in.Interval.Count()))))

	return Quote{
		Annual:         annual,
		Interval:       interval,
		MortalityRate:  mortality.Rate,
		DurationFactor: factor.Factor,
		Base:           base,
		Adjusted:       adjusted,
		ADBCharge:      adb,
		PTDCharge:      ptd,
	}, nil
}
