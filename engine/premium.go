package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/bonus"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/valuation"
)

// =============================================================================
// PREMIUM PAYMENTS
// =============================================================================

// RecordPremiumPayment applies a payment to the holder's ledger. Payments for
// the same holder are serialized; a rejected payment leaves the ledger as it
// was.
func (e *Engine) RecordPremiumPayment(ctx context.Context, holderID generic.HolderID, paid decimal.Decimal, asOf generic.Date) (*premium.Ledger, error) {
	var out *premium.Ledger
	err := e.run(ctx, holderID, func(tx Repos, c *generic.Collector) error {
		current, err := tx.PremiumLedger(ctx, holderID)
		if err != nil {
			return err
		}
		next, pay, err := current.Apply(ctx, paid, asOf, e.valuer(tx))
		if err != nil {
			return err
		}
		if err := tx.UpdatePremiumLedger(ctx, next); err != nil {
			return err
		}

		entry := generic.Entry{
			ID:             generic.EntryID(newID()),
			HolderID:       holderID,
			Account:        generic.AccountPremium,
			Type:           generic.EntryPremiumPayment,
			EffectiveAt:    asOf,
			Amount:         pay.PremiumPortion,
			Reason:         "premium payment",
			IdempotencyKey: fmt.Sprintf("premium:%s:%d", holderID, next.PaymentCount),
			Metadata: map[string]string{
				"paid":          pay.Amount.StringFixed(2),
				"fine_assessed": pay.FineAssessed.StringFixed(2),
				"fine_portion":  pay.FinePortion.StringFixed(2),
				"due_before":    pay.DueBefore.String(),
				"due_after":     pay.DueAfter.String(),
				"payment_count": strconv.Itoa(next.PaymentCount),
			},
			CreatedBy: "system",
			CreatedAt: asOf,
		}
		if err := tx.Append(ctx, entry); err != nil {
			return err
		}

		out = next
		c.Record(generic.NewEvent(generic.EventPremiumPaid, holderID, string(entry.ID), asOf, pay))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("premium payment recorded",
		"holder_id", string(holderID),
		"paid", paid.StringFixed(2),
		"status", string(out.Status))
	return out, nil
}

func (e *Engine) PremiumLedger(ctx context.Context, holderID generic.HolderID) (*premium.Ledger, error) {
	return e.store.PremiumLedger(ctx, holderID)
}

// PremiumPayments lists the payment history entries.
func (e *Engine) PremiumPayments(ctx context.Context, holderID generic.HolderID) ([]generic.Entry, error) {
	return generic.NewLedger(e.store).Entries(ctx, holderID, generic.AccountPremium)
}

// =============================================================================
// VALUATION
// =============================================================================

// ComputeSurrenderValues computes GSV and SSV as of the given day without
// touching the stored snapshot.
func (e *Engine) ComputeSurrenderValues(ctx context.Context, holderID generic.HolderID, asOf generic.Date) (valuation.SurrenderValues, error) {
	l, err := e.store.PremiumLedger(ctx, holderID)
	if err != nil {
		return valuation.SurrenderValues{}, err
	}
	return e.valuer(e.store).Compute(ctx, l, asOf)
}

// ProjectMaturityValue projects the maturity payout in the given mode.
func (e *Engine) ProjectMaturityValue(ctx context.Context, holderID generic.HolderID, mode valuation.Mode, asOf generic.Date) (decimal.Decimal, error) {
	h, err := e.store.Holder(ctx, holderID)
	if err != nil {
		return decimal.Zero, err
	}
	c, err := e.store.Contract(ctx, h.ProductCode)
	if err != nil {
		return decimal.Zero, err
	}
	l, err := e.store.PremiumLedger(ctx, holderID)
	if err != nil {
		return decimal.Zero, err
	}
	return e.valuer(e.store).Maturity(ctx, mode, h, c, l, asOf)
}

// =============================================================================
// BONUS
// =============================================================================

// AccruePolicyBonus credits every completed policy year not yet credited and
// refreshes the ledger's surrender value snapshot. Returns the latest bonus
// created, or nil when nothing was due.
func (e *Engine) AccruePolicyBonus(ctx context.Context, holderID generic.HolderID, asOf generic.Date) (*bonus.Bonus, error) {
	var latest *bonus.Bonus
	err := e.run(ctx, holderID, func(tx Repos, c *generic.Collector) error {
		h, err := tx.Holder(ctx, holderID)
		if err != nil {
			return err
		}
		b, err := bonus.NewAccruer(e.ratesIn(tx), generic.NewLedger(tx), e.logger).Accrue(ctx, h, asOf)
		if err != nil || b == nil {
			return err
		}
		latest = b
		c.Record(generic.NewEvent(generic.EventBonusAccrued, holderID, string(b.ID), asOf, *b))

		l, err := tx.PremiumLedger(ctx, holderID)
		if errors.Is(err, generic.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := l.Revalue(ctx, asOf, e.valuer(tx)); err != nil {
			return err
		}
		l.UpdatedAt = asOf
		return tx.UpdatePremiumLedger(ctx, l)
	})
	return latest, err
}

func (e *Engine) Bonuses(ctx context.Context, holderID generic.HolderID) ([]bonus.Bonus, error) {
	return bonus.List(ctx, generic.NewLedger(e.store), holderID)
}

// AccrueAllBonuses sweeps every Active policy. One holder's failure does not
// stop the others.
func (e *Engine) AccrueAllBonuses(ctx context.Context, asOf generic.Date) generic.BatchResult {
	var res generic.BatchResult
	holders, err := e.store.Holders(ctx, policy.StatusActive)
	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, generic.ItemError{ID: "holders", Err: err})
		return res
	}
	for _, h := range holders {
		b, err := e.AccruePolicyBonus(ctx, h.ID, asOf)
		switch {
		case err != nil:
			res.Failed++
			res.Errors = append(res.Errors, generic.ItemError{ID: string(h.ID), Err: err})
			e.logger.Error("bonus accrual failed", "holder_id", string(h.ID), "error", err)
		case b == nil:
			res.Skipped++
		default:
			res.Processed++
		}
	}
	e.logger.Info("bonus sweep complete",
		"as_of", asOf.String(),
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res
}
