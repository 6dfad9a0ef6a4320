package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/factory"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
)

// =============================================================================
// REFERENCE DATA - Products, rate tables, agents
// =============================================================================

// InstallCatalog stores products and rate rows in one transaction. Any
// overlapping band rejects the whole catalog.
func (e *Engine) InstallCatalog(ctx context.Context, cat *factory.Catalog) error {
	err := e.store.WithTx(ctx, func(tx Repos) error {
		for _, c := range cat.Contracts {
			if err := c.Validate(); err != nil {
				return err
			}
			if err := tx.SaveContract(ctx, c); err != nil {
				return err
			}
		}
		for _, r := range cat.Mortality {
			if err := tx.AddMortality(ctx, r); err != nil {
				return err
			}
		}
		for _, r := range cat.Duration {
			if err := tx.AddDuration(ctx, r); err != nil {
				return err
			}
		}
		for _, r := range cat.GSV {
			if err := tx.AddGSV(ctx, r); err != nil {
				return err
			}
		}
		for _, r := range cat.SSV {
			if err := tx.AddSSV(ctx, r); err != nil {
				return err
			}
		}
		for _, r := range cat.Bonus {
			if err := tx.AddBonus(ctx, r); err != nil {
				return err
			}
		}
		for _, a := range cat.Agents {
			if err := tx.SaveAgent(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.invalidateRates()
	e.logger.Info("catalog installed",
		"contracts", len(cat.Contracts),
		"mortality", len(cat.Mortality),
		"duration", len(cat.Duration),
		"gsv", len(cat.GSV),
		"ssv", len(cat.SSV),
		"bonus", len(cat.Bonus),
		"agents", len(cat.Agents))
	return nil
}

func (e *Engine) invalidateRates() { e.rates.Invalidate() }

// SaveContract adds or replaces a product definition.
func (e *Engine) SaveContract(ctx context.Context, c policy.Contract) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return e.store.SaveContract(ctx, c)
}

func (e *Engine) Contracts(ctx context.Context) ([]policy.Contract, error) {
	return e.store.Contracts(ctx)
}

// RegisterAgent creates a sales agent. A zero rate uses the default.
func (e *Engine) RegisterAgent(ctx context.Context, code, branch string, rate decimal.Decimal) (*agent.Agent, error) {
	a, err := agent.New(newID(), code, branch, rate)
	if err != nil {
		return nil, err
	}
	if err := e.store.SaveAgent(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Engine) Agent(ctx context.Context, id string) (*agent.Agent, error) {
	return e.store.Agent(ctx, id)
}

func (e *Engine) Agents(ctx context.Context) ([]*agent.Agent, error) {
	return e.store.Agents(ctx)
}

func (e *Engine) AgentReports(ctx context.Context, agentID string) ([]*agent.Report, error) {
	return e.store.AgentReports(ctx, agentID)
}

func (e *Engine) Holders(ctx context.Context, status policy.Status) ([]*policy.Holder, error) {
	return e.store.Holders(ctx, status)
}

// Entries returns a holder's entry history for one account.
func (e *Engine) Entries(ctx context.Context, holderID generic.HolderID, account generic.Account) ([]generic.Entry, error) {
	return generic.NewLedger(e.store).Entries(ctx, holderID, account)
}
