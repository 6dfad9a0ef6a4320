package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/underwriting"
)

// PolicyIssued is the payload of EventPolicyIssued.
type PolicyIssued struct {
	PolicyNumber string
	AgentID      string
	Quote        premium.Quote
}

// =============================================================================
// HOLDERS
// =============================================================================

// RegisterHolder validates a new application against its product and stores it
// as Pending with a system underwriting score.
func (e *Engine) RegisterHolder(ctx context.Context, h *policy.Holder, asOf generic.Date) (*policy.Holder, error) {
	if h.ID == "" {
		h.ID = generic.HolderID(newID())
	}
	h.Status = policy.StatusPending
	h.PolicyNumber = ""
	h.MaturityDate = policy.MaturityFor(h.StartDate, h.DurationYears)

	err := e.run(ctx, h.ID, func(tx Repos, c *generic.Collector) error {
		contract, err := tx.Contract(ctx, h.ProductCode)
		if err != nil {
			return err
		}
		if err := h.Validate(contract, asOf); err != nil {
			return err
		}
		if h.AgentID != "" {
			if _, err := tx.Agent(ctx, h.AgentID); err != nil {
				return err
			}
		}
		if err := tx.SaveHolder(ctx, h); err != nil {
			return err
		}
		_, err = e.score(ctx, tx, c, h, asOf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (e *Engine) Holder(ctx context.Context, id generic.HolderID) (*policy.Holder, error) {
	return e.store.Holder(ctx, id)
}

// =============================================================================
// ISSUANCE
// =============================================================================

// IssuePolicy activates a Pending or Approved holder: it scores underwriting,
// prices the premium (a missing rate fails the issue), assigns the policy
// number and seeds the premium ledger. Returns the policy number.
func (e *Engine) IssuePolicy(ctx context.Context, holderID generic.HolderID, asOf generic.Date) (string, error) {
	var number string
	err := e.run(ctx, holderID, func(tx Repos, c *generic.Collector) error {
		h, err := tx.Holder(ctx, holderID)
		if err != nil {
			return err
		}
		if !h.Status.CanTransition(policy.StatusActive) {
			return &generic.TransitionError{Machine: "policy", From: string(h.Status), To: string(policy.StatusActive)}
		}
		contract, err := tx.Contract(ctx, h.ProductCode)
		if err != nil {
			return err
		}
		if err := h.Validate(contract, asOf); err != nil {
			return err
		}

		if _, err := e.score(ctx, tx, c, h, asOf); err != nil {
			return err
		}

		quote, err := premium.Compute(ctx, e.ratesIn(tx), premium.InputFor(contract, h, asOf))
		if err != nil {
			return fmt.Errorf("pricing policy %s: %w", holderID, err)
		}

		latest, err := tx.LatestPolicyNumber(ctx, h.NumberPrefix())
		if err != nil {
			return err
		}
		if _, err := h.Transition(policy.StatusActive, latest); err != nil {
			return err
		}
		if err := tx.SaveHolder(ctx, h); err != nil {
			return err
		}

		ledger := premium.NewLedger(h, contract, quote)
		if err := ledger.Revalue(ctx, asOf, e.valuer(tx)); err != nil {
			return err
		}
		if err := tx.CreatePremiumLedger(ctx, ledger); err != nil {
			return err
		}

		number = h.PolicyNumber
		c.Record(generic.NewEvent(generic.EventPolicyIssued, h.ID, h.PolicyNumber, asOf,
			PolicyIssued{PolicyNumber: h.PolicyNumber, AgentID: h.AgentID, Quote: quote}))
		return nil
	})
	if err != nil {
		return "", err
	}
	e.logger.Info("policy issued", "holder_id", string(holderID), "policy_number", number)
	return number, nil
}

// TransitionPolicy moves a holder through the status machine. Moving to
// Active goes through IssuePolicy.
func (e *Engine) TransitionPolicy(ctx context.Context, holderID generic.HolderID, to policy.Status, asOf generic.Date) (*policy.Holder, error) {
	if !to.Valid() {
		return nil, generic.Invalid("status", "unknown status %q", to)
	}
	if to == policy.StatusActive {
		if _, err := e.IssuePolicy(ctx, holderID, asOf); err != nil {
			return nil, err
		}
		return e.store.Holder(ctx, holderID)
	}

	var out *policy.Holder
	err := e.run(ctx, holderID, func(tx Repos, c *generic.Collector) error {
		h, err := tx.Holder(ctx, holderID)
		if err != nil {
			return err
		}
		from := h.Status
		if _, err := h.Transition(to, ""); err != nil {
			return err
		}
		if err := tx.SaveHolder(ctx, h); err != nil {
			return err
		}
		out = h
		c.Record(generic.NewEvent(generic.EventPolicyTransitioned, h.ID, string(from), asOf, to))
		return nil
	})
	return out, err
}

// =============================================================================
// UNDERWRITING
// =============================================================================

// ScoreUnderwriting recomputes the holder's system score. An overridden
// record is returned as stored.
func (e *Engine) ScoreUnderwriting(ctx context.Context, holderID generic.HolderID, asOf generic.Date) (underwriting.Result, error) {
	var res underwriting.Result
	err := e.run(ctx, "", func(tx Repos, c *generic.Collector) error {
		h, err := tx.Holder(ctx, holderID)
		if err != nil {
			return err
		}
		rec, err := e.score(ctx, tx, c, h, asOf)
		if err != nil {
			return err
		}
		res = underwriting.Result{Score: rec.Score, Category: rec.Category}
		return nil
	})
	return res, err
}

// OverrideUnderwriting stores human-provided values. The holder's risk
// category is not synced from an overridden record.
func (e *Engine) OverrideUnderwriting(ctx context.Context, holderID generic.HolderID, score int, category policy.RiskLevel, remarks string, asOf generic.Date) (underwriting.Record, error) {
	var out underwriting.Record
	err := e.run(ctx, "", func(tx Repos, c *generic.Collector) error {
		rec, err := e.underwritingRecord(ctx, tx, holderID)
		if err != nil {
			return err
		}
		if err := rec.Override(score, category, remarks, asOf); err != nil {
			return err
		}
		if err := tx.SaveUnderwriting(ctx, rec); err != nil {
			return err
		}
		out = *rec
		return nil
	})
	return out, err
}

func (e *Engine) Underwriting(ctx context.Context, holderID generic.HolderID) (*underwriting.Record, error) {
	return e.store.Underwriting(ctx, holderID)
}

func (e *Engine) underwritingRecord(ctx context.Context, tx Repos, holderID generic.HolderID) (*underwriting.Record, error) {
	if _, err := tx.Holder(ctx, holderID); err != nil {
		return nil, err
	}
	rec, err := tx.Underwriting(ctx, holderID)
	if errors.Is(err, generic.ErrNotFound) {
		return &underwriting.Record{HolderID: holderID}, nil
	}
	return rec, err
}

// score recomputes and stores the record and records EventUnderwritingScored
// when the system score moved the category.
func (e *Engine) score(ctx context.Context, tx Repos, c *generic.Collector, h *policy.Holder, asOf generic.Date) (*underwriting.Record, error) {
	rec, err := e.underwritingRecord(ctx, tx, h.ID)
	if err != nil {
		return nil, err
	}
	rec.Recompute(underwriting.ApplicantOf(h, asOf), asOf)
	if err := tx.SaveUnderwriting(ctx, rec); err != nil {
		return nil, err
	}
	if !rec.ManualOverride && h.RiskCategory != rec.Category {
		c.Record(generic.NewEvent(generic.EventUnderwritingScored, h.ID, string(h.ID), asOf, *rec))
	}
	return rec, nil
}
