/*
ledger.go - Running premium payment ledger

PURPOSE:
  One ledger per policy holder: the premium obligation, what has been paid,
  outstanding late fees, the next due date, and a snapshot of the surrender
  values. Other components read this record as the source of truth.

PAYMENT STATE MACHINE (Apply):
  1. Reject non-positive amounts and payments to a fully paid ledger
  2. Late? (as_of > next_due and not Paid) -> fine_due += round2(interval × 2%),
     at most once per missed due date
  3. Reject paid > interval + fine_due (ledger left unchanged)
  4. Payment offsets fine_due first; the remainder counts toward total_paid
  5. Advance next_due by one interval (not Single, not already Paid)
  6. remaining = max(total - paid, 0); status Paid / Partially Paid / Unpaid
  7. Revalue GSV/SSV

Due dates are anchored on the start date (start + k × interval months with
end-of-month clamping) so a Jan 31 start yields Apr 30, then Jul 31.
*/
package premium

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
)

type Status string

const (
	StatusUnpaid        Status = "Unpaid"
	StatusPartiallyPaid Status = "Partially Paid"
	StatusPaid          Status = "Paid"
)

// FineRate is the late fee as a fraction of the interval premium.
var FineRate = decimal.RequireFromString("0.02")

type Ledger struct {
	HolderID    generic.HolderID
	ProductCode string
	PolicyType  policy.Type
	Interval    policy.Interval
	StartDate   generic.Date

	AnnualPremium    decimal.Decimal
	IntervalPremium  decimal.Decimal
	TotalPremium     decimal.Decimal
	TotalPaid        decimal.Decimal
	RemainingPremium decimal.Decimal
	FineDue          decimal.Decimal
	FinePaid         decimal.Decimal

	// DueIndex counts installments elapsed since start; NextDueDate is
	// start + DueIndex × interval months. Zero for single-premium policies.
	DueIndex        int
	NextDueDate     generic.Date
	FineAssessedFor generic.Date
	PaymentCount    int

	GSV decimal.Decimal
	SSV decimal.Decimal

	Status    Status
	Version   int
	UpdatedAt generic.Date
}

// Payment is the split of one applied payment.
type Payment struct {
	Amount         decimal.Decimal
	FineAssessed   decimal.Decimal
	FinePortion    decimal.Decimal
	PremiumPortion decimal.Decimal
	DueBefore      generic.Date
	DueAfter       generic.Date
	PaidAt         generic.Date
}

// Valuer recomputes the surrender value snapshot on a ledger.
type Valuer interface {
	SurrenderValues(ctx context.Context, l *Ledger, asOf generic.Date) (gsv, ssv decimal.Decimal, err error)
}

// NewLedger seeds the ledger from a quote when a policy is issued.
func NewLedger(h *policy.Holder, c policy.Contract, q Quote) *Ledger {
	l := &Ledger{
		HolderID:        h.ID,
		ProductCode:     c.Code,
		PolicyType:      c.Type,
		Interval:        h.PaymentInterval,
		StartDate:       h.StartDate,
		AnnualPremium:   q.Annual,
		IntervalPremium: q.Interval,
		TotalPaid:       decimal.Zero,
		FineDue:         decimal.Zero,
		FinePaid:        decimal.Zero,
		GSV:             decimal.Zero,
		SSV:             decimal.Zero,
		Status:          StatusUnpaid,
		UpdatedAt:       h.StartDate,
	}
	if h.PaymentInterval == policy.IntervalSingle {
		l.TotalPremium = q.Interval
	} else {
		l.TotalPremium = q.Annual.Mul(decimal.NewFromInt(int64(h.DurationYears)))
		l.DueIndex = 1
		l.NextDueDate = l.dueDate(1)
	}
	l.RemainingPremium = l.TotalPremium
	return l
}

func (l *Ledger) dueDate(index int) generic.Date {
	return l.StartDate.AddMonths(l.Interval.Months() * index)
}

// AmountDue is the most a single payment may be right now.
func (l *Ledger) AmountDue() decimal.Decimal {
	return l.IntervalPremium.Add(l.FineDue)
}

// Overdue reports whether a due date has passed unpaid.
func (l *Ledger) Overdue(asOf generic.Date) bool {
	return l.Status != StatusPaid && !l.NextDueDate.IsZero() && asOf.After(l.NextDueDate)
}

// AssessFine adds the late fee once per missed due date and returns it.
func (l *Ledger) AssessFine(asOf generic.Date) decimal.Decimal {
	if !l.Overdue(asOf) || !l.IntervalPremium.IsPositive() || l.FineAssessedFor.Equal(l.NextDueDate) {
		return decimal.Zero
	}
	fine := generic.RoundMoney(l.IntervalPremium.Mul(FineRate))
	l.FineDue = l.FineDue.Add(fine)
	l.FineAssessedFor = l.NextDueDate
	return fine
}

// Apply records a payment on a copy of the ledger. The receiver is never
// modified; on error the returned ledger is nil.
func (l *Ledger) Apply(ctx context.Context, paid decimal.Decimal, asOf generic.Date, v Valuer) (*Ledger, Payment, error) {
	if !paid.IsPositive() {
		return nil, Payment{}, generic.Invalid("paid_amount", "must be positive")
	}
	if l.Status == StatusPaid {
		return nil, Payment{}, generic.Invalid("paid_amount", "premium is already fully paid")
	}

	next := *l
	pay := Payment{Amount: paid, DueBefore: l.NextDueDate, PaidAt: asOf}
	pay.FineAssessed = next.AssessFine(asOf)

	if due := next.AmountDue(); paid.GreaterThan(due) {
		return nil, Payment{}, generic.Invalid("paid_amount",
			"paid amount (%s) cannot exceed the current interval payment plus fine due (%s)", paid.StringFixed(2), due.StringFixed(2))
	}

	pay.FinePortion = decimal.Min(paid, next.FineDue)
	pay.PremiumPortion = paid.Sub(pay.FinePortion)
	next.FineDue = next.FineDue.Sub(pay.FinePortion)
	next.FinePaid = next.FinePaid.Add(pay.FinePortion)
	next.TotalPaid = next.TotalPaid.Add(pay.PremiumPortion)
	next.PaymentCount++

	if next.Interval != policy.IntervalSingle && l.Status != StatusPaid {
		next.DueIndex++
		next.NextDueDate = next.dueDate(next.DueIndex)
	}

	next.refreshStatus()
	next.UpdatedAt = asOf
	pay.DueAfter = next.NextDueDate

	if err := next.Revalue(ctx, asOf, v); err != nil {
		return nil, Payment{}, err
	}
	return &next, pay, nil
}

func (l *Ledger) refreshStatus() {
	l.RemainingPremium = generic.MaxZero(l.TotalPremium.Sub(l.TotalPaid))
	switch {
	case l.TotalPremium.IsPositive() && l.TotalPaid.GreaterThanOrEqual(l.TotalPremium):
		l.Status = StatusPaid
		l.NextDueDate = generic.Date{}
	case l.TotalPaid.IsPositive():
		l.Status = StatusPartiallyPaid
	default:
		l.Status = StatusUnpaid
	}
}

// Revalue refreshes the GSV/SSV snapshot. A nil valuer leaves it untouched.
func (l *Ledger) Revalue(ctx context.Context, asOf generic.Date, v Valuer) error {
	if v == nil {
		return nil
	}
	gsv, ssv, err := v.SurrenderValues(ctx, l, asOf)
	if err != nil {
		return err
	}
	l.GSV = gsv
	l.SSV = ssv
	return nil
}
