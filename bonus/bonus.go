/*
Package bonus computes and accrues yearly reversionary bonuses.

FLOW:
  1. A policy reaches its nth anniversary while Active
  2. Accrue walks every anniversary up to as-of (capped at the term) and
     appends one bonus credit per policy year to the entry ledger
  3. Idempotency key "bonus:<holder>:<year>" makes re-runs and backdated
     catch-up safe: a year is credited at most once
  4. Valuation and claims sum the bonus account

AMOUNT:
  round2(sum_assured / 1000 × bonus_per_thousand), using the latest declared
  bonus rate whose band covers the policy term. No rate -> 0.
*/
package bonus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/ratetable"
)

const metaPolicyYear = "policy_year"

// Bonus is a read view over one bonus credit entry.
type Bonus struct {
	ID         generic.EntryID
	HolderID   generic.HolderID
	PolicyYear int
	Amount     decimal.Decimal
	CreditedOn generic.Date
}

func FromEntry(e generic.Entry) Bonus {
	year, _ := strconv.Atoi(e.Metadata[metaPolicyYear])
	return Bonus{
		ID:         e.ID,
		HolderID:   e.HolderID,
		PolicyYear: year,
		Amount:     e.Amount,
		CreditedOn: e.EffectiveAt,
	}
}

func IdempotencyKey(holderID generic.HolderID, year int) string {
	return fmt.Sprintf("bonus:%s:%d", holderID, year)
}

// Calculate returns the yearly bonus for the holder, 0.00 when no rate applies.
func Calculate(ctx context.Context, rates ratetable.Source, h *policy.Holder) (decimal.Decimal, error) {
	rate, err := rates.BonusRate(ctx, h.ProductCode, h.DurationYears)
	if errors.Is(err, generic.ErrRateNotFound) {
		return generic.RoundMoney(decimal.Zero), nil
	}
	if err != nil {
		return decimal.Zero, &generic.ComputationError{Formula: "bonus", Err: err}
	}
	return generic.RoundMoney(h.SumAssured.Div(generic.Thousand).Mul(rate.BonusPerThousand)), nil
}

// =============================================================================
// ANNIVERSARY SCHEDULE
// =============================================================================

// AnniversarySchedule credits a fixed amount on every policy anniversary
// within the term.
type AnniversarySchedule struct {
	HolderID generic.HolderID
	Start    generic.Date
	Term     int
	Amount   decimal.Decimal
}

var _ generic.AccrualSchedule = (*AnniversarySchedule)(nil)

func (s *AnniversarySchedule) GenerateAccruals(from, to generic.Date) []generic.AccrualEvent {
	var events []generic.AccrualEvent
	for year := 1; year <= s.Term; year++ {
		at := s.Start.AddYears(year)
		if at.After(to) {
			break
		}
		if at.Before(from) {
			continue
		}
		events = append(events, generic.AccrualEvent{
			At:     at,
			Amount: s.Amount,
			Reason: fmt.Sprintf("policy year %d bonus", year),
			Key:    strconv.Itoa(year),
		})
	}
	return events
}

// =============================================================================
// ACCRUER
// =============================================================================

type Accruer struct {
	rates   ratetable.Source
	entries generic.Ledger
	logger  *slog.Logger
}

func NewAccruer(rates ratetable.Source, entries generic.Ledger, logger *slog.Logger) *Accruer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accruer{rates: rates, entries: entries, logger: logger}
}

// Accrue credits every completed policy year not yet credited and returns the
// most recent bonus created, or nil when nothing was due.
func (a *Accruer) Accrue(ctx context.Context, h *policy.Holder, asOf generic.Date) (*Bonus, error) {
	if h.Status != policy.StatusActive {
		return nil, nil
	}
	amount, err := Calculate(ctx, a.rates, h)
	if err != nil {
		return nil, err
	}

	schedule := &AnniversarySchedule{HolderID: h.ID, Start: h.StartDate, Term: h.DurationYears, Amount: amount}
	var latest *Bonus
	for _, ev := range schedule.GenerateAccruals(h.StartDate, asOf) {
		year, _ := strconv.Atoi(ev.Key)
		key := IdempotencyKey(h.ID, year)

		exists, err := a.entries.Has(ctx, key)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		entry := generic.Entry{
			ID:             generic.EntryID(uuid.NewString()),
			HolderID:       h.ID,
			Account:        generic.AccountBonus,
			Type:           generic.EntryBonusCredit,
			EffectiveAt:    ev.At,
			Amount:         ev.Amount,
			Reason:         ev.Reason,
			IdempotencyKey: key,
			Metadata:       map[string]string{metaPolicyYear: ev.Key},
			CreatedBy:      "system",
			CreatedAt:      asOf,
		}
		if err := a.entries.Append(ctx, entry); err != nil {
			if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
				continue
			}
			return nil, err
		}
		b := FromEntry(entry)
		latest = &b
		a.logger.Debug("bonus credited",
			"holder_id", string(h.ID),
			"policy_year", year,
			"amount", ev.Amount.StringFixed(2))
	}
	return latest, nil
}

// List returns the holder's bonuses in credit order.
func List(ctx context.Context, entries generic.Ledger, holderID generic.HolderID) ([]Bonus, error) {
	es, err := entries.Entries(ctx, holderID, generic.AccountBonus)
	if err != nil {
		return nil, err
	}
	out := make([]Bonus, 0, len(es))
	for _, e := range es {
		out = append(out, FromEntry(e))
	}
	return out, nil
}
