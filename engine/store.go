package engine

import (
	"context"

	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/claims"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/ratetable"
	"github.com/warp/policy-engine/underwriting"
)

// Repos is the persistence boundary seen by one unit of work. Getters return
// a *generic.NotFoundError when the record does not exist.
type Repos interface {
	generic.Store
	ratetable.Source
	RateWriter

	Contract(ctx context.Context, code string) (policy.Contract, error)
	Contracts(ctx context.Context) ([]policy.Contract, error)
	SaveContract(ctx context.Context, c policy.Contract) error

	Holder(ctx context.Context, id generic.HolderID) (*policy.Holder, error)
	Holders(ctx context.Context, status policy.Status) ([]*policy.Holder, error)
	SaveHolder(ctx context.Context, h *policy.Holder) error
	// LatestPolicyNumber returns the highest number issued under prefix, or "".
	LatestPolicyNumber(ctx context.Context, prefix string) (string, error)

	Underwriting(ctx context.Context, holderID generic.HolderID) (*underwriting.Record, error)
	SaveUnderwriting(ctx context.Context, r *underwriting.Record) error

	PremiumLedger(ctx context.Context, holderID generic.HolderID) (*premium.Ledger, error)
	CreatePremiumLedger(ctx context.Context, l *premium.Ledger) error
	// UpdatePremiumLedger writes l only if the stored version still equals
	// l.Version, then increments it. A moved version is ErrConcurrencyConflict.
	UpdatePremiumLedger(ctx context.Context, l *premium.Ledger) error

	Loan(ctx context.Context, id string) (*loan.Loan, error)
	LoansByHolder(ctx context.Context, holderID generic.HolderID) ([]*loan.Loan, error)
	ActiveLoanIDs(ctx context.Context) ([]string, error)
	CreateLoan(ctx context.Context, l *loan.Loan) error
	// UpdateLoan has the same compare-and-swap contract as UpdatePremiumLedger.
	UpdateLoan(ctx context.Context, l *loan.Loan) error
	SaveRepayment(ctx context.Context, r *loan.Repayment) error
	Repayments(ctx context.Context, loanID string) ([]*loan.Repayment, error)

	Claim(ctx context.Context, id string) (*claims.Request, error)
	ClaimsByHolder(ctx context.Context, holderID generic.HolderID) ([]*claims.Request, error)
	SaveClaim(ctx context.Context, r *claims.Request) error
	ClaimProcessing(ctx context.Context, claimID string) (*claims.Processing, error)
	SaveClaimProcessing(ctx context.Context, p *claims.Processing) error
	ClaimPayment(ctx context.Context, claimID string) (*claims.Payment, error)
	SaveClaimPayment(ctx context.Context, p *claims.Payment) error

	Agent(ctx context.Context, id string) (*agent.Agent, error)
	Agents(ctx context.Context) ([]*agent.Agent, error)
	SaveAgent(ctx context.Context, a *agent.Agent) error
	AgentReport(ctx context.Context, agentID string, reportDate generic.Date) (*agent.Report, error)
	AgentReports(ctx context.Context, agentID string) ([]*agent.Report, error)
	SaveAgentReport(ctx context.Context, r *agent.Report) error
}

// RateWriter adds reference rate rows. Each row is validated against the
// rows already stored for its key group.
type RateWriter interface {
	AddMortality(ctx context.Context, r ratetable.MortalityRate) error
	AddDuration(ctx context.Context, r ratetable.DurationFactor) error
	AddGSV(ctx context.Context, r ratetable.GSVRate) error
	AddSSV(ctx context.Context, r ratetable.SSVConfig) error
	AddBonus(ctx context.Context, r ratetable.BonusRate) error
}

// Store is Repos plus atomic units of work. Inside fn, only the Repos passed
// in may be used.
type Store interface {
	Repos
	WithTx(ctx context.Context, fn func(tx Repos) error) error
}
