/*
Package valuation computes surrender and maturity values.

FORMULAS:
  GSV = round2(max(total_paid - annual_premium, 0) × gsv_rate / 100)
        where the band is looked up by completed years (floor(days / 365));
        no band -> 0
  SSV = round2(total_paid × ssv_factor / 100 + accrued bonuses)
        Endowment only, band must match and payment count must reach the
        band's eligibility years; otherwise 0
  Estimated maturity = SA + GA + SA × 4.5% × term + SA × terminal_rate
  Actual maturity    = SA + GA + accrued bonuses + SA × terminal_rate
                       (Active or Matured policies only, otherwise 0)
  GA = annual × ((1 + r)^term - 1) / r   when r, annual and term are > 0
     = annual × term                      otherwise, or on ComputationError

All outputs are rounded to 2 decimal places, half away from zero.
*/
package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/ratetable"
)

// EstimatedBonusRate is the flat yearly bonus assumption for projections.
var EstimatedBonusRate = decimal.RequireFromString("0.045")

// MaxCompoundingTerm bounds the annuity power. Longer terms fall back to
// annual × term.
const MaxCompoundingTerm = 100

type Mode string

const (
	ModeEstimated Mode = "estimated"
	ModeActual    Mode = "actual"
)

func (m Mode) Valid() bool {
	return m == ModeEstimated || m == ModeActual
}

type SurrenderValues struct {
	GSV decimal.Decimal
	SSV decimal.Decimal
}

// Engine reads rate tables and the bonus account of the entry ledger.
type Engine struct {
	rates   ratetable.Source
	entries generic.Ledger
	logger  *slog.Logger
}

func New(rates ratetable.Source, entries generic.Ledger, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rates: rates, entries: entries, logger: logger}
}

// =============================================================================
// SURRENDER VALUES
// =============================================================================

// GSV returns 0.00 when no band covers the elapsed years.
func (e *Engine) GSV(ctx context.Context, l *premium.Ledger, asOf generic.Date) (decimal.Decimal, error) {
	years := generic.CompletedYears(l.StartDate, asOf)
	band, err := e.rates.GSVRate(ctx, l.ProductCode, years)
	if errors.Is(err, generic.ErrRateNotFound) {
		return generic.RoundMoney(decimal.Zero), nil
	}
	if err != nil {
		return decimal.Zero, &generic.ComputationError{Formula: "gsv", Err: err}
	}
	excess := generic.MaxZero(l.TotalPaid.Sub(l.AnnualPremium))
	return generic.RoundMoney(generic.Percent(excess, band.Rate)), nil
}

// SSV applies to Endowment policies that met the band's payment threshold.
func (e *Engine) SSV(ctx context.Context, l *premium.Ledger, asOf generic.Date) (decimal.Decimal, error) {
	zero := generic.RoundMoney(decimal.Zero)
	if l.PolicyType != policy.TypeEndowment {
		return zero, nil
	}
	years := generic.CompletedYears(l.StartDate, asOf)
	cfg, err := e.rates.SSVConfig(ctx, l.ProductCode, years)
	if errors.Is(err, generic.ErrRateNotFound) {
		return zero, nil
	}
	if err != nil {
		return decimal.Zero, &generic.ComputationError{Formula: "ssv", Err: err}
	}
	if l.PaymentCount < cfg.EligibilityYears {
		return zero, nil
	}
	bonuses, err := e.AccruedBonus(ctx, l.HolderID, asOf)
	if err != nil {
		return decimal.Zero, &generic.ComputationError{Formula: "ssv", Err: err}
	}
	return generic.RoundMoney(generic.Percent(l.TotalPaid, cfg.Factor).Add(bonuses)), nil
}

// SurrenderValues satisfies premium.Valuer.
func (e *Engine) SurrenderValues(ctx context.Context, l *premium.Ledger, asOf generic.Date) (decimal.Decimal, decimal.Decimal, error) {
	sv, err := e.Compute(ctx, l, asOf)
	return sv.GSV, sv.SSV, err
}

func (e *Engine) Compute(ctx context.Context, l *premium.Ledger, asOf generic.Date) (SurrenderValues, error) {
	gsv, err := e.GSV(ctx, l, asOf)
	if err != nil {
		return SurrenderValues{}, err
	}
	ssv, err := e.SSV(ctx, l, asOf)
	if err != nil {
		return SurrenderValues{}, err
	}
	return SurrenderValues{GSV: gsv, SSV: ssv}, nil
}

// AccruedBonus sums bonus credits effective on or before asOf.
func (e *Engine) AccruedBonus(ctx context.Context, holderID generic.HolderID, asOf generic.Date) (decimal.Decimal, error) {
	if e.entries == nil {
		return decimal.Zero, nil
	}
	return e.entries.Total(ctx, holderID, generic.AccountBonus, asOf)
}

// =============================================================================
// MATURITY
// =============================================================================

// AnnuityFactor is ((1 + r)^n - 1) / r.
func AnnuityFactor(rate decimal.Decimal, term int) (decimal.Decimal, error) {
	if term > MaxCompoundingTerm {
		return decimal.Zero, &generic.ComputationError{
			Formula: "guaranteed additions",
			Err:     fmt.Errorf("term %d exceeds %d years", term, MaxCompoundingTerm),
		}
	}
	if !rate.IsPositive() {
		return decimal.Zero, &generic.ComputationError{
			Formula: "guaranteed additions",
			Err:     fmt.Errorf("rate %s must be positive", rate),
		}
	}
	growth, err := decimal.NewFromInt(1).Add(rate).PowInt32(int32(term))
	if err != nil {
		return decimal.Zero, &generic.ComputationError{Formula: "guaranteed additions", Err: err}
	}
	return growth.Sub(decimal.NewFromInt(1)).Div(rate), nil
}

// GuaranteedAdditions is the future value of the annual premium compounded at
// the guaranteed rate. It falls back to annual × term when the rate, premium
// or term is not positive, or when the factor cannot be computed.
func (e *Engine) GuaranteedAdditions(holderID generic.HolderID, annual, rate decimal.Decimal, term int) decimal.Decimal {
	years := decimal.NewFromInt(int64(term))
	fallback := annual.Mul(years)
	if !rate.IsPositive() || !annual.IsPositive() || term <= 0 {
		return fallback
	}
	factor, err := AnnuityFactor(rate, term)
	if err != nil {
		e.logger.Warn("guaranteed additions fell back to annual premium × term",
			"holder_id", string(holderID),
			"formula", "guaranteed additions",
			"term", term,
			"error", err)
		return fallback
	}
	return annual.Mul(factor)
}

// EstimatedMaturity projects the maturity value with the flat bonus assumption.
func (e *Engine) EstimatedMaturity(h *policy.Holder, c policy.Contract, l *premium.Ledger) decimal.Decimal {
	annual := decimal.Zero
	if l != nil {
		annual = l.AnnualPremium
	}
	term := decimal.NewFromInt(int64(h.DurationYears))

	ga := e.GuaranteedAdditions(h.ID, annual, c.GuaranteedInterestRate, h.DurationYears)
	bonus := h.SumAssured.Mul(EstimatedBonusRate).Mul(term)
	terminal := h.SumAssured.Mul(c.TerminalBonusRate)

	return generic.RoundMoney(h.SumAssured.Add(ga).Add(bonus).Add(terminal))
}

// ActualMaturity uses the accrued bonus ledger instead of the flat estimate.
func (e *Engine) ActualMaturity(ctx context.Context, h *policy.Holder, c policy.Contract, l *premium.Ledger, asOf generic.Date) (decimal.Decimal, error) {
	if !h.Accruing() {
		return generic.RoundMoney(decimal.Zero), nil
	}
	annual := decimal.Zero
	if l != nil {
		annual = l.AnnualPremium
	}
	bonuses, err := e.AccruedBonus(ctx, h.ID, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	ga := e.GuaranteedAdditions(h.ID, annual, c.GuaranteedInterestRate, h.DurationYears)
	terminal := h.SumAssured.Mul(c.TerminalBonusRate)

	return generic.RoundMoney(h.SumAssured.Add(ga).Add(bonuses).Add(terminal)), nil
}

// Maturity dispatches on mode.
func (e *Engine) Maturity(ctx context.Context, mode Mode, h *policy.Holder, c policy.Contract, l *premium.Ledger, asOf generic.Date) (decimal.Decimal, error) {
	switch mode {
	case ModeEstimated:
		return e.EstimatedMaturity(h, c, l), nil
	case ModeActual:
		return e.ActualMaturity(ctx, h, c, l, asOf)
	}
	return decimal.Zero, generic.Invalid("mode", "unknown maturity mode %q", mode)
}
