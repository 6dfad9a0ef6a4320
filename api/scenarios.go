/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	policy histories. Each scenario registers holders on the built-in END
	product and drives them through the engine operations, so every number
	a scenario shows was produced by the same code paths as live traffic.

AVAILABLE SCENARIOS:

	new-policy:       Freshly issued quarterly endowment, nothing paid yet
	late-payer:       Missed installment settled with a late fee
	policy-loan:      Four years paid, loan at the GSV cap, interest accrued
	backdated-bonus:  Policy issued with a past start date, bonuses caught up
	claim-settled:    Approved death claim net of an outstanding loan

HOW SCENARIOS WORK:
 1. Register a holder (agent ag-001 where the scenario shows commission)
 2. Issue the policy as of the scenario's start
 3. Pay installments on their due dates
 4. Optionally open loans, accrue interest or raise claims

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "policy-loan"}

NOTE:

	Scenarios add data; they never reset the database. They need the
	built-in catalog (END product, agent ag-001) to be installed.

SEE ALSO:
  - handlers.go: Operation endpoints
  - factory/presets.go: Built-in catalog
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/claims"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
	"github.com/warp/policy-engine/policy"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

type LoadScenarioResponse struct {
	Scenario  string   `json:"scenario"`
	HolderIDs []string `json:"holder_ids"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "new-policy",
		Name:        "New Policy",
		Description: "Quarterly endowment issued today, first installment not yet due",
	},
	{
		ID:          "late-payer",
		Name:        "Late Payer",
		Description: "Missed installment settled with a 2% late fee",
	},
	{
		ID:          "policy-loan",
		Name:        "Policy Loan",
		Description: "Four years of premiums, loan at 90% of GSV, a year of interest and a repayment",
	},
	{
		ID:          "backdated-bonus",
		Name:        "Backdated Bonus",
		Description: "Policy started three years before issue; completed years are credited",
	},
	{
		ID:          "claim-settled",
		Name:        "Claim Settled",
		Description: "Approved death claim paying sum assured plus bonuses minus the loan",
	},
}

type scenarioLoader func(ctx context.Context, h *Handler, today generic.Date) ([]generic.HolderID, error)

var scenarioLoaders = map[string]scenarioLoader{
	"new-policy":      loadNewPolicyScenario,
	"late-payer":      loadLatePayerScenario,
	"policy-loan":     loadPolicyLoanScenario,
	"backdated-bonus": loadBackdatedBonusScenario,
	"claim-settled":   loadClaimSettledScenario,
}

// scenarioMu keeps two loads from interleaving their policy numbers.
var scenarioMu sync.Mutex

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	scenarioMu.Lock()
	ids, err := load(r.Context(), h, generic.Today())
	scenarioMu.Unlock()
	if err != nil {
		h.writeEngineError(w, r, "Failed to load scenario", fmt.Errorf("%s: %w", req.ScenarioID, err))
		return
	}

	resp := LoadScenarioResponse{Scenario: req.ScenarioID, HolderIDs: make([]string, len(ids))}
	for i, id := range ids {
		resp.HolderIDs[i] = string(id)
	}
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID, "holders", len(ids))
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadNewPolicyScenario(ctx context.Context, h *Handler, today generic.Date) ([]generic.HolderID, error) {
	hd, err := issueDemoPolicy(ctx, h, "demo-new", today, today, "ag-001")
	if err != nil {
		return nil, err
	}
	return []generic.HolderID{hd.ID}, nil
}

func loadLatePayerScenario(ctx context.Context, h *Handler, today generic.Date) ([]generic.HolderID, error) {
	start := today.AddYears(-1)
	hd, err := issueDemoPolicy(ctx, h, "demo-late", start, start, "ag-001")
	if err != nil {
		return nil, err
	}
	if err := payInstallments(ctx, h, hd, 1); err != nil {
		return nil, err
	}
	// Second installment paid ten days late: fee first, then premium.
	late := hd.StartDate.AddMonths(6).AddDays(10)
	l, err := h.Engine.PremiumLedger(ctx, hd.ID)
	if err != nil {
		return nil, err
	}
	fee := generic.RoundMoney(l.IntervalPremium.Mul(decimal.RequireFromString("0.02")))
	if _, err := h.Engine.RecordPremiumPayment(ctx, hd.ID, l.IntervalPremium.Add(fee), late); err != nil {
		return nil, err
	}
	return []generic.HolderID{hd.ID}, nil
}

func loadPolicyLoanScenario(ctx context.Context, h *Handler, today generic.Date) ([]generic.HolderID, error) {
	start := today.AddYears(-5)
	hd, loanID, err := demoLoan(ctx, h, "demo-loan", start)
	if err != nil {
		return nil, err
	}
	opened := start.AddYears(4)
	if _, err := h.Engine.AccrueLoanInterest(ctx, loanID, opened.AddYears(1)); err != nil {
		return nil, err
	}
	if _, err := h.Engine.ApplyLoanRepayment(ctx, loanID, decimal.NewFromInt(500), loan.RepayBoth, opened.AddYears(1)); err != nil {
		return nil, err
	}
	return []generic.HolderID{hd.ID}, nil
}

func loadBackdatedBonusScenario(ctx context.Context, h *Handler, today generic.Date) ([]generic.HolderID, error) {
	start := today.AddYears(-3).AddMonths(-5)
	hd, err := issueDemoPolicy(ctx, h, "demo-backdated", start, today, "")
	if err != nil {
		return nil, err
	}
	return []generic.HolderID{hd.ID}, nil
}

func loadClaimSettledScenario(ctx context.Context, h *Handler, today generic.Date) ([]generic.HolderID, error) {
	start := today.AddYears(-5)
	hd, _, err := demoLoan(ctx, h, "demo-claim", start)
	if err != nil {
		return nil, err
	}
	asOf := start.AddYears(4)
	if _, err := h.Engine.AccruePolicyBonus(ctx, hd.ID, asOf); err != nil {
		return nil, err
	}
	req, err := h.Engine.RaiseClaim(ctx, hd.ID, "death", nil, asOf)
	if err != nil {
		return nil, err
	}
	if _, err := h.Engine.ProcessClaim(ctx, req.ID, claims.Approve, "death certificate verified", asOf); err != nil {
		return nil, err
	}
	return []generic.HolderID{hd.ID}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// issueDemoPolicy registers and issues a 40-year-old on END: 500000 over 10
// years, paid quarterly.
func issueDemoPolicy(ctx context.Context, h *Handler, customer string, start, issuedOn generic.Date, agentID string) (*policy.Holder, error) {
	in := &policy.Holder{
		CustomerID:      customer,
		ProductCode:     "END",
		CompanyCode:     "01",
		BranchCode:      "01",
		AgentID:         agentID,
		SumAssured:      decimal.NewFromInt(500000),
		DurationYears:   10,
		DateOfBirth:     issuedOn.AddYears(-40),
		PaymentInterval: policy.IntervalQuarterly,
		Occupation:      policy.RiskLow,
		StartDate:       start,
	}
	hd, err := h.Engine.RegisterHolder(ctx, in, issuedOn)
	if err != nil {
		return nil, err
	}
	if _, err := h.Engine.IssuePolicy(ctx, hd.ID, issuedOn); err != nil {
		return nil, err
	}
	return h.Engine.Holder(ctx, hd.ID)
}

// payInstallments pays n installments, each on its due date.
func payInstallments(ctx context.Context, h *Handler, hd *policy.Holder, n int) error {
	l, err := h.Engine.PremiumLedger(ctx, hd.ID)
	if err != nil {
		return err
	}
	months := hd.PaymentInterval.Months()
	for i := 1; i <= n; i++ {
		if _, err := h.Engine.RecordPremiumPayment(ctx, hd.ID, l.IntervalPremium, hd.StartDate.AddMonths(months*i)); err != nil {
			return fmt.Errorf("installment %d: %w", i, err)
		}
	}
	return nil
}

// demoLoan pays four years of premiums and borrows the full cap at 10%.
func demoLoan(ctx context.Context, h *Handler, customer string, start generic.Date) (*policy.Holder, string, error) {
	hd, err := issueDemoPolicy(ctx, h, customer, start, start, "ag-001")
	if err != nil {
		return nil, "", err
	}
	if err := payInstallments(ctx, h, hd, 16); err != nil {
		return nil, "", err
	}
	elig, err := h.Engine.EvaluateLoanRequest(ctx, hd.ID, nil)
	if err != nil {
		return nil, "", err
	}
	l, err := h.Engine.CreateLoan(ctx, hd.ID, elig.MaxAllowed.Truncate(2), decimal.NewFromInt(10), start.AddYears(4))
	if err != nil {
		return nil, "", err
	}
	return hd, l.ID, nil
}
