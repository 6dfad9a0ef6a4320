/*
Package loan services policy loans secured by the guaranteed surrender value.

RULES:
  - Max loan = 90% of the GSV snapshot on the premium ledger
  - Interest = round2(balance × rate / 100 / 365 × days since last accrual),
    accrued only for Active loans and only when days > 0 (same-day re-runs
    are no-ops)
  - Repayments pay accrued interest first (Both, Interest), then principal
    (Both, Principal); what neither part absorbs is recorded as unapplied
  - The loan is Paid once principal and interest both reach zero
*/
package loan

import (
	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
)

// MaxLoanRatio caps a loan as a fraction of GSV.
var MaxLoanRatio = decimal.RequireFromString("0.90")

type Status string

const (
	StatusActive Status = "Active"
	StatusPaid   Status = "Paid"
)

type RepaymentType string

const (
	RepayBoth      RepaymentType = "Both"
	RepayInterest  RepaymentType = "Interest"
	RepayPrincipal RepaymentType = "Principal"
)

func (t RepaymentType) Valid() bool {
	switch t {
	case RepayBoth, RepayInterest, RepayPrincipal:
		return true
	}
	return false
}

func (t RepaymentType) paysInterest() bool  { return t == RepayBoth || t == RepayInterest }
func (t RepaymentType) paysPrincipal() bool { return t == RepayBoth || t == RepayPrincipal }

// =============================================================================
// ELIGIBILITY
// =============================================================================

type Eligibility struct {
	Valid      bool
	Message    string
	MaxAllowed decimal.Decimal
	GSV        decimal.Decimal
	Requested  *decimal.Decimal
}

// Evaluate bounds a request by 90% of GSV. A nil amount only reports the cap.
// hasLedger is false when the holder has no premium ledger yet.
func Evaluate(gsv decimal.Decimal, hasLedger bool, amount *decimal.Decimal) Eligibility {
	if !hasLedger {
		return Eligibility{
			Message:    "No premium payments found for policy holder",
			MaxAllowed: decimal.Zero,
			GSV:        decimal.Zero,
		}
	}
	max := gsv.Mul(MaxLoanRatio)
	e := Eligibility{
		Valid:      true,
		Message:    "Maximum loan amount calculated",
		MaxAllowed: max,
		GSV:        gsv,
		Requested:  amount,
	}
	if amount == nil {
		return e
	}
	switch {
	case !amount.IsPositive():
		e.Valid = false
		e.Message = "Loan amount must be greater than 0"
	case amount.GreaterThan(max):
		e.Valid = false
		e.Message = "Loan amount exceeds maximum allowed amount of " + max.StringFixed(2)
	default:
		e.Message = "Loan amount is valid"
	}
	return e
}

// Err converts an invalid eligibility into a ValidationError.
func (e Eligibility) Err() error {
	if e.Valid {
		return nil
	}
	return generic.Invalid("loan_amount", "%s", e.Message)
}

// =============================================================================
// LOAN
// =============================================================================

type Loan struct {
	ID               string
	HolderID         generic.HolderID
	Principal        decimal.Decimal
	InterestRate     decimal.Decimal // annual, percent
	RemainingBalance decimal.Decimal
	AccruedInterest  decimal.Decimal
	Status           Status
	LastInterestDate generic.Date
	CreatedAt        generic.Date
	UpdatedAt        generic.Date
	Version          int
}

// New opens a loan after checking the eligibility for the same amount.
func New(id string, holderID generic.HolderID, amount, annualRate decimal.Decimal, elig Eligibility, asOf generic.Date) (*Loan, error) {
	if err := elig.Err(); err != nil {
		return nil, err
	}
	if elig.Requested == nil || !elig.Requested.Equal(amount) {
		return nil, generic.Invalid("loan_amount", "eligibility was evaluated for a different amount")
	}
	if annualRate.IsNegative() {
		return nil, generic.Invalid("interest_rate", "cannot be negative")
	}
	return &Loan{
		ID:               id,
		HolderID:         holderID,
		Principal:        amount,
		InterestRate:     annualRate,
		RemainingBalance: amount,
		AccruedInterest:  decimal.Zero,
		Status:           StatusActive,
		LastInterestDate: asOf,
		CreatedAt:        asOf,
		UpdatedAt:        asOf,
	}, nil
}

// Outstanding is principal plus accrued interest.
func (l *Loan) Outstanding() decimal.Decimal {
	return l.RemainingBalance.Add(l.AccruedInterest)
}

// AccrueInterest adds simple daily interest since the last accrual and
// returns the amount added.
func (l *Loan) AccrueInterest(asOf generic.Date) decimal.Decimal {
	if l.Status != StatusActive {
		return decimal.Zero
	}
	days := generic.DaysBetween(l.LastInterestDate, asOf)
	if days <= 0 {
		return decimal.Zero
	}
	interest := generic.RoundMoney(
		l.RemainingBalance.Mul(l.InterestRate).Mul(decimal.NewFromInt(int64(days))).
			Div(generic.Hundred.Mul(generic.DaysPerYear)),
	)
	l.AccruedInterest = l.AccruedInterest.Add(interest)
	l.LastInterestDate = asOf
	l.UpdatedAt = asOf
	return interest
}

// =============================================================================
// REPAYMENT
// =============================================================================

// Repayment is immutable once written.
type Repayment struct {
	ID                   string
	LoanID               string
	HolderID             generic.HolderID
	Amount               decimal.Decimal
	Type                 RepaymentType
	InterestPaid         decimal.Decimal
	PrincipalPaid        decimal.Decimal
	Unapplied            decimal.Decimal
	RemainingLoanBalance decimal.Decimal
	RepaidOn             generic.Date
}

// ApplyRepayment allocates the amount and snapshots the outstanding balance.
func (l *Loan) ApplyRepayment(id string, amount decimal.Decimal, typ RepaymentType, asOf generic.Date) (*Repayment, error) {
	if !amount.IsPositive() {
		return nil, generic.Invalid("amount", "repayment must be greater than 0")
	}
	if !typ.Valid() {
		return nil, generic.Invalid("repayment_type", "unsupported repayment type %q", typ)
	}
	if l.Status != StatusActive {
		return nil, &generic.TransitionError{Machine: "loan", From: string(l.Status), To: "repayment"}
	}

	r := &Repayment{
		ID:            id,
		LoanID:        l.ID,
		HolderID:      l.HolderID,
		Amount:        amount,
		Type:          typ,
		InterestPaid:  decimal.Zero,
		PrincipalPaid: decimal.Zero,
		RepaidOn:      asOf,
	}
	remaining := amount

	if typ.paysInterest() {
		r.InterestPaid = decimal.Min(remaining, l.AccruedInterest)
		l.AccruedInterest = l.AccruedInterest.Sub(r.InterestPaid)
		remaining = remaining.Sub(r.InterestPaid)
	}
	if typ.paysPrincipal() && remaining.IsPositive() {
		r.PrincipalPaid = decimal.Min(remaining, l.RemainingBalance)
		l.RemainingBalance = l.RemainingBalance.Sub(r.PrincipalPaid)
		remaining = remaining.Sub(r.PrincipalPaid)
	}
	r.Unapplied = remaining

	if !l.RemainingBalance.IsPositive() && !l.AccruedInterest.IsPositive() {
		l.Status = StatusPaid
	}
	l.UpdatedAt = asOf
	r.RemainingLoanBalance = l.Outstanding()
	return r, nil
}

// BatchResult summarizes an interest accrual run over many loans.
type BatchResult = generic.BatchResult
