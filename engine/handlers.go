package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/underwriting"
)

// =============================================================================
// POST-COMMIT HANDLERS
// =============================================================================

// syncRiskCategory copies a system-computed category onto the holder. The
// holder save emits nothing, so the chain ends here.
func (e *Engine) syncRiskCategory(ctx context.Context, ev generic.Event) ([]generic.Event, error) {
	rec, ok := ev.Payload.(underwriting.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	return nil, e.store.WithTx(ctx, func(tx Repos) error {
		h, err := tx.Holder(ctx, ev.HolderID)
		if err != nil {
			return err
		}
		if !underwriting.SyncHolder(h, rec) {
			return nil
		}
		return tx.SaveHolder(ctx, h)
	})
}

func (e *Engine) recordAgentSale(ctx context.Context, ev generic.Event) ([]generic.Event, error) {
	issued, ok := ev.Payload.(PolicyIssued)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	if issued.AgentID == "" {
		return nil, nil
	}
	return nil, e.withAgentReport(ctx, issued.AgentID, ev.AsOf, func(a *agent.Agent, r *agent.Report) {
		a.RecordSale(r, ev.AsOf)
	})
}

// catchUpBonuses credits anniversaries already passed when a policy is issued
// with a backdated start.
func (e *Engine) catchUpBonuses(ctx context.Context, ev generic.Event) ([]generic.Event, error) {
	_, err := e.AccruePolicyBonus(ctx, ev.HolderID, ev.AsOf)
	return nil, err
}

func (e *Engine) recordCommission(ctx context.Context, ev generic.Event) ([]generic.Event, error) {
	pay, ok := ev.Payload.(premium.Payment)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	if !pay.PremiumPortion.IsPositive() {
		return nil, nil
	}
	h, err := e.store.Holder(ctx, ev.HolderID)
	if err != nil {
		return nil, err
	}
	if h.AgentID == "" {
		return nil, nil
	}
	return nil, e.withAgentReport(ctx, h.AgentID, ev.AsOf, func(a *agent.Agent, r *agent.Report) {
		c := a.RecordPremium(r, pay.PremiumPortion)
		e.logger.Debug("commission credited",
			"agent_id", a.ID,
			"holder_id", string(ev.HolderID),
			"commission", c.StringFixed(2))
	})
}

// withAgentReport loads the agent and its report for the month of asOf,
// creating the report on first use, and saves both after fn.
func (e *Engine) withAgentReport(ctx context.Context, agentID string, asOf generic.Date, fn func(*agent.Agent, *agent.Report)) error {
	return e.store.WithTx(ctx, func(tx Repos) error {
		a, err := tx.Agent(ctx, agentID)
		if err != nil {
			return err
		}
		r, err := tx.AgentReport(ctx, agentID, agent.ReportDate(asOf))
		if errors.Is(err, generic.ErrNotFound) {
			r = agent.NewReport(a, asOf)
		} else if err != nil {
			return err
		}
		fn(a, r)
		if err := tx.SaveAgent(ctx, a); err != nil {
			return err
		}
		return tx.SaveAgentReport(ctx, r)
	})
}
