/*
Package claims runs the three-stage claim pipeline.

PIPELINE:

	Request{Pending} ──raise──> Processing{Processing}
	                                │
	              Approved ─────────┼───────── Rejected
	                 │                              │
	Payment{Completed, payout}          Request{Rejected}, no payment
	Request{Approved}

PAYOUT:
  max(sum_assured + Σ bonus credits − Σ (balance + interest) of Active loans, 0),
  rounded to 2 places. Computed once when the payment record is created and
  never recomputed afterwards.
*/
package claims

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
	"github.com/warp/policy-engine/policy"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

type ProcessingStatus string

const (
	ProcessingOpen     ProcessingStatus = "Processing"
	ProcessingApproved ProcessingStatus = "Approved"
	ProcessingRejected ProcessingStatus = "Rejected"
)

type PaymentStatus string

const PaymentCompleted PaymentStatus = "Completed"

// Decision is the outcome of claim processing.
type Decision string

const (
	Approve Decision = "Approved"
	Reject  Decision = "Rejected"
)

func (d Decision) Valid() bool { return d == Approve || d == Reject }

// =============================================================================
// RECORDS
// =============================================================================

type Request struct {
	ID        string
	HolderID  generic.HolderID
	Reason    string
	Amount    decimal.Decimal
	Status    RequestStatus
	ClaimDate generic.Date
	UpdatedAt generic.Date
}

type Processing struct {
	ID          string
	ClaimID     string
	Status      ProcessingStatus
	Remarks     string
	ProcessedAt generic.Date
}

type Payment struct {
	ID         string
	ClaimID    string
	HolderID   generic.HolderID
	Status     PaymentStatus
	AmountPaid decimal.Decimal
	Reference  string
	PaidOn     generic.Date
}

// NewRequest raises a claim together with its processing record. A nil or
// zero amount defaults to the full sum assured.
func NewRequest(id, processingID string, h *policy.Holder, reason string, amount *decimal.Decimal, asOf generic.Date) (*Request, *Processing, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, nil, generic.Invalid("reason", "is required")
	}
	if !h.Accruing() {
		return nil, nil, generic.Invalid("status", "claims require an Active or Matured policy, got %s", h.Status)
	}

	claimAmount := h.SumAssured
	if amount != nil && !amount.IsZero() {
		if amount.IsNegative() {
			return nil, nil, generic.Invalid("claim_amount", "cannot be negative")
		}
		claimAmount = *amount
	}

	req := &Request{
		ID:        id,
		HolderID:  h.ID,
		Reason:    reason,
		Amount:    generic.RoundMoney(claimAmount),
		Status:    RequestPending,
		ClaimDate: asOf,
		UpdatedAt: asOf,
	}
	proc := &Processing{
		ID:          processingID,
		ClaimID:     id,
		Status:      ProcessingOpen,
		ProcessedAt: asOf,
	}
	return req, proc, nil
}

// Decide closes processing and propagates the outcome back to the request.
// A claim is decided exactly once.
func Decide(req *Request, proc *Processing, d Decision, remarks string, asOf generic.Date) error {
	if !d.Valid() {
		return generic.Invalid("decision", "must be Approved or Rejected, got %q", d)
	}
	if proc.Status != ProcessingOpen || req.Status != RequestPending {
		return &generic.TransitionError{Machine: "claim", From: string(proc.Status), To: string(d)}
	}

	proc.Remarks = remarks
	proc.ProcessedAt = asOf
	req.UpdatedAt = asOf
	if d == Approve {
		proc.Status = ProcessingApproved
		req.Status = RequestApproved
	} else {
		proc.Status = ProcessingRejected
		req.Status = RequestRejected
	}
	return nil
}

// =============================================================================
// PAYOUT
// =============================================================================

// OutstandingLoans sums principal and interest across the Active loans.
func OutstandingLoans(loans []*loan.Loan) decimal.Decimal {
	total := decimal.Zero
	for _, l := range loans {
		if l.Status == loan.StatusActive {
			total = total.Add(l.Outstanding())
		}
	}
	return total
}

// Payout never returns a negative amount.
func Payout(sumAssured, bonuses decimal.Decimal, loans []*loan.Loan) decimal.Decimal {
	return generic.RoundMoney(generic.MaxZero(sumAssured.Add(bonuses).Sub(OutstandingLoans(loans))))
}

// NewPayment creates the disbursement record for an approved claim.
func NewPayment(id string, req *Request, amount decimal.Decimal, asOf generic.Date) (*Payment, error) {
	if req.Status != RequestApproved {
		return nil, &generic.TransitionError{Machine: "claim", From: string(req.Status), To: "payment"}
	}
	return &Payment{
		ID:         id,
		ClaimID:    req.ID,
		HolderID:   req.HolderID,
		Status:     PaymentCompleted,
		AmountPaid: amount,
		Reference:  "CLM-" + req.ID,
		PaidOn:     asOf,
	}, nil
}
