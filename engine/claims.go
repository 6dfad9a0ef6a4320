package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/claims"
	"github.com/warp/policy-engine/generic"
)

// RaiseClaim files a claim and opens its processing record. A nil or zero
// amount defaults to the sum assured.
func (e *Engine) RaiseClaim(ctx context.Context, holderID generic.HolderID, reason string, amount *decimal.Decimal, asOf generic.Date) (*claims.Request, error) {
	var out *claims.Request
	err := e.run(ctx, "", func(tx Repos, _ *generic.Collector) error {
		h, err := tx.Holder(ctx, holderID)
		if err != nil {
			return err
		}
		req, proc, err := claims.NewRequest(newID(), newID(), h, reason, amount, asOf)
		if err != nil {
			return err
		}
		if err := tx.SaveClaim(ctx, req); err != nil {
			return err
		}
		if err := tx.SaveClaimProcessing(ctx, proc); err != nil {
			return err
		}
		out = req
		return nil
	})
	return out, err
}

// ProcessClaim decides a claim. Approval creates the payment record with the
// payout fixed at that moment; rejection returns nil. Re-approving an
// approved claim returns the existing payment unchanged.
func (e *Engine) ProcessClaim(ctx context.Context, claimID string, d claims.Decision, remarks string, asOf generic.Date) (*claims.Payment, error) {
	var out *claims.Payment
	err := e.run(ctx, "", func(tx Repos, c *generic.Collector) error {
		req, err := tx.Claim(ctx, claimID)
		if err != nil {
			return err
		}
		if req.Status == claims.RequestApproved && d == claims.Approve {
			existing, err := tx.ClaimPayment(ctx, claimID)
			if err == nil {
				out = existing
				return nil
			}
			if !errors.Is(err, generic.ErrNotFound) {
				return err
			}
		}

		proc, err := tx.ClaimProcessing(ctx, claimID)
		if err != nil {
			return err
		}
		if err := claims.Decide(req, proc, d, remarks, asOf); err != nil {
			return err
		}
		if err := tx.SaveClaimProcessing(ctx, proc); err != nil {
			return err
		}
		if err := tx.SaveClaim(ctx, req); err != nil {
			return err
		}
		c.Record(generic.NewEvent(generic.EventClaimDecided, req.HolderID, req.ID, asOf, d))
		if d == claims.Reject {
			return nil
		}

		payout, err := e.payout(ctx, tx, req.HolderID, asOf)
		if err != nil {
			return err
		}
		p, err := claims.NewPayment(newID(), req, payout, asOf)
		if err != nil {
			return err
		}
		if err := tx.SaveClaimPayment(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (e *Engine) payout(ctx context.Context, tx Repos, holderID generic.HolderID, asOf generic.Date) (decimal.Decimal, error) {
	h, err := tx.Holder(ctx, holderID)
	if err != nil {
		return decimal.Zero, err
	}
	bonuses, err := generic.NewLedger(tx).Total(ctx, holderID, generic.AccountBonus, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	loans, err := tx.LoansByHolder(ctx, holderID)
	if err != nil {
		return decimal.Zero, err
	}
	return claims.Payout(h.SumAssured, bonuses, loans), nil
}

func (e *Engine) Claim(ctx context.Context, id string) (*claims.Request, error) {
	return e.store.Claim(ctx, id)
}

func (e *Engine) Claims(ctx context.Context, holderID generic.HolderID) ([]*claims.Request, error) {
	return e.store.ClaimsByHolder(ctx, holderID)
}

func (e *Engine) ClaimPayment(ctx context.Context, claimID string) (*claims.Payment, error) {
	return e.store.ClaimPayment(ctx, claimID)
}
