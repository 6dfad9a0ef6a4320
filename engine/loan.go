package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
	"github.com/warp/policy-engine/policy"
)

// EvaluateLoanRequest bounds a loan by 90% of the ledger's GSV snapshot. A nil
// amount only reports the cap.
func (e *Engine) EvaluateLoanRequest(ctx context.Context, holderID generic.HolderID, amount *decimal.Decimal) (loan.Eligibility, error) {
	return e.evaluateLoan(ctx, e.store, holderID, amount)
}

func (e *Engine) evaluateLoan(ctx context.Context, r Repos, holderID generic.HolderID, amount *decimal.Decimal) (loan.Eligibility, error) {
	if _, err := r.Holder(ctx, holderID); err != nil {
		return loan.Eligibility{}, err
	}
	l, err := r.PremiumLedger(ctx, holderID)
	if errors.Is(err, generic.ErrNotFound) {
		return loan.Evaluate(decimal.Zero, false, amount), nil
	}
	if err != nil {
		return loan.Eligibility{}, err
	}
	return loan.Evaluate(l.GSV, true, amount), nil
}

// CreateLoan opens a loan against an Active policy.
func (e *Engine) CreateLoan(ctx context.Context, holderID generic.HolderID, amount, annualRate decimal.Decimal, asOf generic.Date) (*loan.Loan, error) {
	var out *loan.Loan
	err := e.run(ctx, holderID, func(tx Repos, c *generic.Collector) error {
		h, err := tx.Holder(ctx, holderID)
		if err != nil {
			return err
		}
		if h.Status != policy.StatusActive {
			return generic.Invalid("status", "loans require an Active policy, got %s", h.Status)
		}
		elig, err := e.evaluateLoan(ctx, tx, holderID, &amount)
		if err != nil {
			return err
		}
		l, err := loan.New(newID(), holderID, amount, annualRate, elig, asOf)
		if err != nil {
			return err
		}
		if err := tx.CreateLoan(ctx, l); err != nil {
			return err
		}
		out = l
		c.Record(generic.NewEvent(generic.EventLoanCreated, holderID, l.ID, asOf, *l))
		return nil
	})
	return out, err
}

func (e *Engine) Loan(ctx context.Context, id string) (*loan.Loan, error) {
	return e.store.Loan(ctx, id)
}

func (e *Engine) Loans(ctx context.Context, holderID generic.HolderID) ([]*loan.Loan, error) {
	return e.store.LoansByHolder(ctx, holderID)
}

func (e *Engine) Repayments(ctx context.Context, loanID string) ([]*loan.Repayment, error) {
	return e.store.Repayments(ctx, loanID)
}

// AccrueLoanInterest brings one loan's interest up to asOf. Re-running on the
// same day changes nothing.
func (e *Engine) AccrueLoanInterest(ctx context.Context, loanID string, asOf generic.Date) (*loan.Loan, error) {
	l, _, err := e.accrueLoan(ctx, loanID, asOf)
	return l, err
}

func (e *Engine) accrueLoan(ctx context.Context, loanID string, asOf generic.Date) (*loan.Loan, decimal.Decimal, error) {
	var (
		out   *loan.Loan
		added decimal.Decimal
	)
	err := e.run(ctx, "", func(tx Repos, _ *generic.Collector) error {
		l, err := tx.Loan(ctx, loanID)
		if err != nil {
			return err
		}
		out = l
		added = l.AccrueInterest(asOf)
		if added.IsZero() {
			return nil
		}
		return tx.UpdateLoan(ctx, l)
	})
	return out, added, err
}

// AccrueAllLoanInterest runs the daily accrual over every Active loan. Each
// loan commits on its own; a failure is logged and counted, never fatal.
func (e *Engine) AccrueAllLoanInterest(ctx context.Context, asOf generic.Date) loan.BatchResult {
	var res loan.BatchResult
	ids, err := e.store.ActiveLoanIDs(ctx)
	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, generic.ItemError{ID: "loans", Err: err})
		e.logger.Error("loan interest batch could not list loans", "error", err)
		return res
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			res.Failed++
			res.Errors = append(res.Errors, generic.ItemError{ID: id, Err: ctx.Err()})
			continue
		}
		_, added, err := e.accrueLoan(ctx, id, asOf)
		switch {
		case err != nil:
			res.Failed++
			res.Errors = append(res.Errors, generic.ItemError{ID: id, Err: err})
			e.logger.Error("loan interest accrual failed", "loan_id", id, "error", err)
		case added.IsZero():
			res.Skipped++
		default:
			res.Processed++
		}
	}
	e.logger.Info("loan interest batch complete",
		"as_of", asOf.String(),
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res
}

// ApplyLoanRepayment allocates a repayment to the loan's current accrued
// interest and balance, and stores the immutable repayment record.
func (e *Engine) ApplyLoanRepayment(ctx context.Context, loanID string, amount decimal.Decimal, typ loan.RepaymentType, asOf generic.Date) (*loan.Repayment, error) {
	var out *loan.Repayment
	err := e.run(ctx, "", func(tx Repos, c *generic.Collector) error {
		l, err := tx.Loan(ctx, loanID)
		if err != nil {
			return err
		}
		r, err := l.ApplyRepayment(newID(), amount, typ, asOf)
		if err != nil {
			return err
		}
		if err := tx.UpdateLoan(ctx, l); err != nil {
			return err
		}
		if err := tx.SaveRepayment(ctx, r); err != nil {
			return err
		}
		err = tx.Append(ctx, generic.Entry{
			ID:             generic.EntryID(newID()),
			HolderID:       l.HolderID,
			Account:        generic.AccountLoan,
			Type:           generic.EntryLoanRepayment,
			EffectiveAt:    asOf,
			Amount:         r.InterestPaid.Add(r.PrincipalPaid),
			ReferenceID:    l.ID,
			Reason:         string(typ) + " repayment",
			IdempotencyKey: "repayment:" + r.ID,
			Metadata: map[string]string{
				"interest_paid":  r.InterestPaid.StringFixed(2),
				"principal_paid": r.PrincipalPaid.StringFixed(2),
				"unapplied":      r.Unapplied.StringFixed(2),
				"balance_after":  r.RemainingLoanBalance.StringFixed(2),
			},
			CreatedBy: "system",
			CreatedAt: asOf,
		})
		if err != nil {
			return err
		}
		out = r
		c.Record(generic.NewEvent(generic.EventLoanRepaid, l.HolderID, l.ID, asOf, *r))
		return nil
	})
	return out, err
}
