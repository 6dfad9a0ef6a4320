/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENCODING:
  Money and rates are decimal strings ("750.00"). Dates are "YYYY-MM-DD".
  An omitted as_of means today.

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/bonus"
	"github.com/warp/policy-engine/claims"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
	"github.com/warp/policy-engine/underwriting"
)

// =============================================================================
// HOLDERS
// =============================================================================

type HolderDTO struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	ProductCode     string          `json:"product_code"`
	CompanyCode     string          `json:"company_code"`
	BranchCode      string          `json:"branch_code"`
	AgentID         string          `json:"agent_id,omitempty"`
	PolicyNumber    string          `json:"policy_number,omitempty"`
	SumAssured      decimal.Decimal `json:"sum_assured"`
	DurationYears   int             `json:"duration_years"`
	DateOfBirth     string          `json:"date_of_birth"`
	PaymentInterval string          `json:"payment_interval"`
	Occupation      string          `json:"occupation,omitempty"`
	Smoker          bool            `json:"smoker"`
	Alcoholic       bool            `json:"alcoholic"`
	RiskCategory    string          `json:"risk_category,omitempty"`
	Status          string          `json:"status"`
	StartDate       string          `json:"start_date"`
	MaturityDate    string          `json:"maturity_date,omitempty"`
}

func toHolderDTO(h *policy.Holder) HolderDTO {
	return HolderDTO{
		ID:              string(h.ID),
		CustomerID:      h.CustomerID,
		ProductCode:     h.ProductCode,
		CompanyCode:     h.CompanyCode,
		BranchCode:      h.BranchCode,
		AgentID:         h.AgentID,
		PolicyNumber:    h.PolicyNumber,
		SumAssured:      h.SumAssured,
		DurationYears:   h.DurationYears,
		DateOfBirth:     dateString(h.DateOfBirth),
		PaymentInterval: string(h.PaymentInterval),
		Occupation:      string(h.Occupation),
		Smoker:          h.Smoker,
		Alcoholic:       h.Alcoholic,
		RiskCategory:    string(h.RiskCategory),
		Status:          string(h.Status),
		StartDate:       dateString(h.StartDate),
		MaturityDate:    dateString(h.MaturityDate),
	}
}

// RegisterHolderRequest is the application for a new policy.
type RegisterHolderRequest struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	ProductCode     string          `json:"product_code"`
	CompanyCode     string          `json:"company_code"`
	BranchCode      string          `json:"branch_code"`
	AgentID         string          `json:"agent_id"`
	SumAssured      decimal.Decimal `json:"sum_assured"`
	DurationYears   int             `json:"duration_years"`
	DateOfBirth     string          `json:"date_of_birth"`
	PaymentInterval string          `json:"payment_interval"`
	Occupation      string          `json:"occupation"`
	Smoker          bool            `json:"smoker"`
	Alcoholic       bool            `json:"alcoholic"`
	StartDate       string          `json:"start_date"`
	AsOf            string          `json:"as_of"`
}

func (r RegisterHolderRequest) holder() (*policy.Holder, error) {
	dob, err := parseDate("date_of_birth", r.DateOfBirth)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return nil, err
	}
	return &policy.Holder{
		ID:              generic.HolderID(r.ID),
		CustomerID:      r.CustomerID,
		ProductCode:     r.ProductCode,
		CompanyCode:     r.CompanyCode,
		BranchCode:      r.BranchCode,
		AgentID:         r.AgentID,
		SumAssured:      r.SumAssured,
		DurationYears:   r.DurationYears,
		DateOfBirth:     dob,
		PaymentInterval: policy.Interval(r.PaymentInterval),
		Occupation:      policy.RiskLevel(r.Occupation),
		Smoker:          r.Smoker,
		Alcoholic:       r.Alcoholic,
		StartDate:       start,
	}, nil
}

// AsOfRequest carries only an as-of date.
type AsOfRequest struct {
	AsOf string `json:"as_of"`
}

type IssueResponse struct {
	PolicyNumber string    `json:"policy_number"`
	Holder       HolderDTO `json:"holder"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	AsOf   string `json:"as_of"`
}

// =============================================================================
// UNDERWRITING
// =============================================================================

type UnderwritingDTO struct {
	HolderID       string `json:"holder_id"`
	Score          int    `json:"score"`
	Category       string `json:"category"`
	ManualOverride bool   `json:"manual_override"`
	Remarks        string `json:"remarks,omitempty"`
	LastUpdatedBy  string `json:"last_updated_by,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func toUnderwritingDTO(r underwriting.Record) UnderwritingDTO {
	return UnderwritingDTO{
		HolderID:       string(r.HolderID),
		Score:          r.Score,
		Category:       string(r.Category),
		ManualOverride: r.ManualOverride,
		Remarks:        r.Remarks,
		LastUpdatedBy:  r.LastUpdatedBy,
		UpdatedAt:      dateString(r.UpdatedAt),
	}
}

type OverrideRequest struct {
	Score    int    `json:"score"`
	Category string `json:"category"`
	Remarks  string `json:"remarks"`
	AsOf     string `json:"as_of"`
}

// =============================================================================
// PREMIUM
// =============================================================================

type LedgerDTO struct {
	HolderID         string          `json:"holder_id"`
	ProductCode      string          `json:"product_code"`
	Interval         string          `json:"payment_interval"`
	AnnualPremium    decimal.Decimal `json:"annual_premium"`
	IntervalPremium  decimal.Decimal `json:"interval_premium"`
	TotalPremium     decimal.Decimal `json:"total_premium"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingPremium decimal.Decimal `json:"remaining_premium"`
	FineDue          decimal.Decimal `json:"fine_due"`
	FinePaid         decimal.Decimal `json:"fine_paid"`
	NextDueDate      string          `json:"next_due_date,omitempty"`
	PaymentCount     int             `json:"payment_count"`
	GSV              decimal.Decimal `json:"gsv"`
	SSV              decimal.Decimal `json:"ssv"`
	Status           string          `json:"status"`
	Version          int             `json:"version"`
}

func toLedgerDTO(l *premium.Ledger) LedgerDTO {
	return LedgerDTO{
		HolderID:         string(l.HolderID),
		ProductCode:      l.ProductCode,
		Interval:         string(l.Interval),
		AnnualPremium:    l.AnnualPremium,
		IntervalPremium:  l.IntervalPremium,
		TotalPremium:     l.TotalPremium,
		TotalPaid:        l.TotalPaid,
		RemainingPremium: l.RemainingPremium,
		FineDue:          l.FineDue,
		FinePaid:         l.FinePaid,
		NextDueDate:      dateString(l.NextDueDate),
		PaymentCount:     l.PaymentCount,
		GSV:              l.GSV,
		SSV:              l.SSV,
		Status:           string(l.Status),
		Version:          l.Version,
	}
}

type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	AsOf   string          `json:"as_of"`
}

// EntryDTO is one line of an account history.
type EntryDTO struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	EffectiveAt string            `json:"effective_at"`
	Amount      decimal.Decimal   `json:"amount"`
	ReferenceID string            `json:"reference_id,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func toEntryDTOs(es []generic.Entry) []EntryDTO {
	out := make([]EntryDTO, len(es))
	for i, e := range es {
		out[i] = EntryDTO{
			ID:          string(e.ID),
			Type:        string(e.Type),
			EffectiveAt: dateString(e.EffectiveAt),
			Amount:      e.Amount,
			ReferenceID: e.ReferenceID,
			Reason:      e.Reason,
			Metadata:    e.Metadata,
		}
	}
	return out
}

// =============================================================================
// VALUATION AND BONUS
// =============================================================================

type SurrenderValueDTO struct {
	HolderID string          `json:"holder_id"`
	AsOf     string          `json:"as_of"`
	GSV      decimal.Decimal `json:"gsv"`
	SSV      decimal.Decimal `json:"ssv"`
}

type MaturityDTO struct {
	HolderID string          `json:"holder_id"`
	Mode     string          `json:"mode"`
	AsOf     string          `json:"as_of"`
	Value    decimal.Decimal `json:"value"`
}

type BonusDTO struct {
	ID         string          `json:"id"`
	PolicyYear int             `json:"policy_year"`
	Amount     decimal.Decimal `json:"amount"`
	CreditedOn string          `json:"credited_on"`
}

func toBonusDTO(b bonus.Bonus) BonusDTO {
	return BonusDTO{
		ID:         string(b.ID),
		PolicyYear: b.PolicyYear,
		Amount:     b.Amount,
		CreditedOn: dateString(b.CreditedOn),
	}
}

// =============================================================================
// LOANS
// =============================================================================

type EligibilityDTO struct {
	Valid      bool             `json:"valid"`
	Message    string           `json:"message"`
	MaxAllowed decimal.Decimal  `json:"max_allowed"`
	GSV        decimal.Decimal  `json:"gsv"`
	Requested  *decimal.Decimal `json:"requested,omitempty"`
}

func toEligibilityDTO(e loan.Eligibility) EligibilityDTO {
	return EligibilityDTO{
		Valid:      e.Valid,
		Message:    e.Message,
		MaxAllowed: e.MaxAllowed,
		GSV:        e.GSV,
		Requested:  e.Requested,
	}
}

type LoanDTO struct {
	ID               string          `json:"id"`
	HolderID         string          `json:"holder_id"`
	Principal        decimal.Decimal `json:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	AccruedInterest  decimal.Decimal `json:"accrued_interest"`
	Status           string          `json:"status"`
	LastInterestDate string          `json:"last_interest_date"`
	CreatedAt        string          `json:"created_at"`
}

func toLoanDTO(l *loan.Loan) LoanDTO {
	return LoanDTO{
		ID:               l.ID,
		HolderID:         string(l.HolderID),
		Principal:        l.Principal,
		InterestRate:     l.InterestRate,
		RemainingBalance: l.RemainingBalance,
		AccruedInterest:  l.AccruedInterest,
		Status:           string(l.Status),
		LastInterestDate: dateString(l.LastInterestDate),
		CreatedAt:        dateString(l.CreatedAt),
	}
}

type CreateLoanRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	AsOf         string          `json:"as_of"`
}

type RepaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"repayment_type"`
	AsOf   string          `json:"as_of"`
}

type RepaymentDTO struct {
	ID                   string          `json:"id"`
	LoanID               string          `json:"loan_id"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 string          `json:"repayment_type"`
	InterestPaid         decimal.Decimal `json:"interest_paid"`
	PrincipalPaid        decimal.Decimal `json:"principal_paid"`
	Unapplied            decimal.Decimal `json:"unapplied"`
	RemainingLoanBalance decimal.Decimal `json:"remaining_loan_balance"`
	RepaidOn             string          `json:"repaid_on"`
}

func toRepaymentDTO(r *loan.Repayment) RepaymentDTO {
	return RepaymentDTO{
		ID:                   r.ID,
		LoanID:               r.LoanID,
		Amount:               r.Amount,
		Type:                 string(r.Type),
		InterestPaid:         r.InterestPaid,
		PrincipalPaid:        r.PrincipalPaid,
		Unapplied:            r.Unapplied,
		RemainingLoanBalance: r.RemainingLoanBalance,
		RepaidOn:             dateString(r.RepaidOn),
	}
}

// BatchDTO reports a sweep over many items.
type BatchDTO struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func toBatchDTO(r generic.BatchResult) BatchDTO {
	out := BatchDTO{Processed: r.Processed, Skipped: r.Skipped, Failed: r.Failed}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	return out
}

type AccrualRunDTO struct {
	AsOf         string   `json:"as_of"`
	LoanInterest BatchDTO `json:"loan_interest"`
	Bonuses      BatchDTO `json:"bonuses"`
}

// =============================================================================
// CLAIMS
// =============================================================================

type ClaimDTO struct {
	ID        string          `json:"id"`
	HolderID  string          `json:"holder_id"`
	Reason    string          `json:"reason"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	ClaimDate string          `json:"claim_date"`
	UpdatedAt string          `json:"updated_at"`
}

func toClaimDTO(c *claims.Request) ClaimDTO {
	return ClaimDTO{
		ID:        c.ID,
		HolderID:  string(c.HolderID),
		Reason:    c.Reason,
		Amount:    c.Amount,
		Status:    string(c.Status),
		ClaimDate: dateString(c.ClaimDate),
		UpdatedAt: dateString(c.UpdatedAt),
	}
}

type RaiseClaimRequest struct {
	Reason string           `json:"reason"`
	Amount *decimal.Decimal `json:"amount"`
	AsOf   string           `json:"as_of"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Remarks  string `json:"remarks"`
	AsOf     string `json:"as_of"`
}

type ClaimPaymentDTO struct {
	ID         string          `json:"id"`
	ClaimID    string          `json:"claim_id"`
	HolderID   string          `json:"holder_id"`
	Status     string          `json:"status"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Reference  string          `json:"reference"`
	PaidOn     string          `json:"paid_on"`
}

func toClaimPaymentDTO(p *claims.Payment) ClaimPaymentDTO {
	return ClaimPaymentDTO{
		ID:         p.ID,
		ClaimID:    p.ClaimID,
		HolderID:   string(p.HolderID),
		Status:     string(p.Status),
		AmountPaid: p.AmountPaid,
		Reference:  p.Reference,
		PaidOn:     dateString(p.PaidOn),
	}
}

// DecisionResponse carries the payment when the claim was approved.
type DecisionResponse struct {
	Claim   ClaimDTO         `json:"claim"`
	Payment *ClaimPaymentDTO `json:"payment,omitempty"`
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

type ProductDTO struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	MinSumAssured decimal.Decimal `json:"min_sum_assured"`
	MaxSumAssured decimal.Decimal `json:"max_sum_assured"`
}

func toProductDTO(c policy.Contract) ProductDTO {
	return ProductDTO{
		Code:          c.Code,
		Name:          c.Name,
		Type:          string(c.Type),
		MinSumAssured: c.MinSumAssured,
		MaxSumAssured: c.MaxSumAssured,
	}
}

type AgentDTO struct {
	ID                    string          `json:"id"`
	Code                  string          `json:"code"`
	BranchCode            string          `json:"branch_code"`
	CommissionRate        decimal.Decimal `json:"commission_rate"`
	Active                bool            `json:"active"`
	TotalPoliciesSold     int             `json:"total_policies_sold"`
	TotalPremiumCollected decimal.Decimal `json:"total_premium_collected"`
	LastPolicyDate        string          `json:"last_policy_date,omitempty"`
}

func toAgentDTO(a *agent.Agent) AgentDTO {
	return AgentDTO{
		ID:                    a.ID,
		Code:                  a.Code,
		BranchCode:            a.BranchCode,
		CommissionRate:        a.CommissionRate,
		Active:                a.Active,
		TotalPoliciesSold:     a.TotalPoliciesSold,
		TotalPremiumCollected: a.TotalPremiumCollected,
		LastPolicyDate:        dateString(a.LastPolicyDate),
	}
}

type CreateAgentRequest struct {
	Code           string          `json:"code"`
	BranchCode     string          `json:"branch_code"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

type AgentReportDTO struct {
	AgentID          string          `json:"agent_id"`
	Period           string          `json:"period"`
	BranchCode       string          `json:"branch_code"`
	PoliciesSold     int             `json:"policies_sold"`
	TotalPremium     decimal.Decimal `json:"total_premium"`
	CommissionEarned decimal.Decimal `json:"commission_earned"`
}

func toAgentReportDTO(r *agent.Report) AgentReportDTO {
	return AgentReportDTO{
		AgentID:          r.AgentID,
		Period:           r.Period,
		BranchCode:       r.BranchCode,
		PoliciesSold:     r.PoliciesSold,
		TotalPremium:     r.TotalPremium,
		CommissionEarned: r.CommissionEarned,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

func dateString(d generic.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
