package loan_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func date(year int, month time.Month, day int) generic.Date {
	return generic.NewDate(year, month, day)
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

func TestEvaluate_CapIsNinetyPercentOfGSV(t *testing.T) {
	// GIVEN: GSV 2700.00 -> cap 2430.00
	// THEN: 2430.00 is valid, 2430.01 is not

	gsv := dec("2700.00")

	e := loan.Evaluate(gsv, true, nil)
	assert.True(t, e.Valid)
	assertMoney(t, "2430", e.MaxAllowed)

	assert.True(t, loan.Evaluate(gsv, true, ptr(dec("2430.00"))).Valid)
	assert.True(t, loan.Evaluate(gsv, true, ptr(dec("0.01"))).Valid)

	over := loan.Evaluate(gsv, true, ptr(dec("2430.01")))
	assert.False(t, over.Valid)
	assert.Contains(t, over.Message, "exceeds maximum")
	assert.True(t, errors.Is(over.Err(), generic.ErrValidation))

	assert.False(t, loan.Evaluate(gsv, true, ptr(dec("0"))).Valid)
	assert.False(t, loan.Evaluate(gsv, true, ptr(dec("-1"))).Valid)
}

func TestEvaluate_NoLedger(t *testing.T) {
	e := loan.Evaluate(decimal.Zero, false, ptr(dec("100")))
	assert.False(t, e.Valid)
	assert.Equal(t, "No premium payments found for policy holder", e.Message)
}

func TestNew_RejectsAmountAboveCap(t *testing.T) {
	amount := dec("2430.01")
	elig := loan.Evaluate(dec("2700"), true, &amount)

	l, err := loan.New("loan-1", "ph-1", amount, dec("8"), elig, date(2024, time.January, 1))
	assert.Nil(t, l)
	assert.True(t, errors.Is(err, generic.ErrValidation))
}

func newLoan(t *testing.T, amount string, asOf generic.Date) *loan.Loan {
	t.Helper()
	a := dec(amount)
	l, err := loan.New("loan-1", "ph-1", a, dec("10"), loan.Evaluate(dec("1000000"), true, &a), asOf)
	require.NoError(t, err)
	return l
}

func TestNew_SetsBalanceAndDates(t *testing.T) {
	asOf := date(2024, time.January, 1)
	l := newLoan(t, "1000", asOf)

	assertMoney(t, "1000", l.RemainingBalance)
	assert.True(t, l.AccruedInterest.IsZero())
	assert.Equal(t, loan.StatusActive, l.Status)
	assert.Equal(t, asOf, l.LastInterestDate)
	assert.Equal(t, asOf, l.CreatedAt)
}

// =============================================================================
// INTEREST
// =============================================================================

func TestAccrueInterest_DailySimpleInterest(t *testing.T) {
	// GIVEN: 100000 at 10% for 30 days
	// THEN: 100000 × 10 × 30 / 36500 = 821.917... -> 821.92

	l := newLoan(t, "100000", date(2024, time.January, 1))

	added := l.AccrueInterest(date(2024, time.January, 31))
	assertMoney(t, "821.92", added)
	assertMoney(t, "821.92", l.AccruedInterest)
	assert.Equal(t, "2024-01-31", l.LastInterestDate.String())
}

func TestAccrueInterest_SameDayIsNoop(t *testing.T) {
	l := newLoan(t, "100000", date(2024, time.January, 1))
	asOf := date(2024, time.February, 1)

	l.AccrueInterest(asOf)
	first := l.AccruedInterest

	added := l.AccrueInterest(asOf)
	assert.True(t, added.IsZero())
	assert.True(t, first.Equal(l.AccruedInterest))

	// Earlier as-of is also a no-op
	l.AccrueInterest(date(2024, time.January, 15))
	assert.True(t, first.Equal(l.AccruedInterest))
}

func TestAccrueInterest_PaidLoanIsNoop(t *testing.T) {
	l := newLoan(t, "100", date(2024, time.January, 1))
	_, err := l.ApplyRepayment("r-1", dec("100"), loan.RepayBoth, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Equal(t, loan.StatusPaid, l.Status)

	assert.True(t, l.AccrueInterest(date(2025, time.January, 1)).IsZero())
}

// =============================================================================
// REPAYMENT
// =============================================================================

func loanWithInterest(t *testing.T) *loan.Loan {
	l := newLoan(t, "1000", date(2024, time.January, 1))
	l.AccruedInterest = dec("50")
	return l
}

func TestApplyRepayment_InterestFirst(t *testing.T) {
	// GIVEN: Interest 50, balance 1000
	// WHEN: Repaying 30 with type Both
	// THEN: Interest 20, balance 1000

	l := loanWithInterest(t)
	r, err := l.ApplyRepayment("r-1", dec("30"), loan.RepayBoth, date(2024, time.February, 1))
	require.NoError(t, err)
	assertMoney(t, "20", l.AccruedInterest)
	assertMoney(t, "1000", l.RemainingBalance)
	assertMoney(t, "30", r.InterestPaid)
	assertMoney(t, "0", r.PrincipalPaid)
	assertMoney(t, "1020", r.RemainingLoanBalance)
}

func TestApplyRepayment_RemainderToPrincipal(t *testing.T) {
	// GIVEN: Interest 50, balance 1000
	// WHEN: Repaying 70 with type Both
	// THEN: Interest 0, balance 980

	l := loanWithInterest(t)
	r, err := l.ApplyRepayment("r-1", dec("70"), loan.RepayBoth, date(2024, time.February, 1))
	require.NoError(t, err)
	assertMoney(t, "0", l.AccruedInterest)
	assertMoney(t, "980", l.RemainingBalance)
	assertMoney(t, "50", r.InterestPaid)
	assertMoney(t, "20", r.PrincipalPaid)
	assertMoney(t, "980", r.RemainingLoanBalance)
}

func TestApplyRepayment_Types(t *testing.T) {
	tests := []struct {
		typ       loan.RepaymentType
		interest  string
		balance   string
		unapplied string
	}{
		{loan.RepayInterest, "0", "1000", "20"},
		{loan.RepayPrincipal, "50", "930", "0"},
		{loan.RepayBoth, "0", "980", "0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			l := loanWithInterest(t)
			r, err := l.ApplyRepayment("r-1", dec("70"), tt.typ, date(2024, time.February, 1))
			require.NoError(t, err)
			assertMoney(t, tt.interest, l.AccruedInterest)
			assertMoney(t, tt.balance, l.RemainingBalance)
			assertMoney(t, tt.unapplied, r.Unapplied)
		})
	}
}

func TestApplyRepayment_FullPaymentClosesLoan(t *testing.T) {
	l := loanWithInterest(t)
	r, err := l.ApplyRepayment("r-1", dec("1100"), loan.RepayBoth, date(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, loan.StatusPaid, l.Status)
	assertMoney(t, "50", r.Unapplied)
	assertMoney(t, "0", r.RemainingLoanBalance)

	_, err = l.ApplyRepayment("r-2", dec("1"), loan.RepayBoth, date(2024, time.February, 2))
	assert.True(t, errors.Is(err, generic.ErrInvalidTransition))
}

func TestApplyRepayment_Validation(t *testing.T) {
	l := loanWithInterest(t)
	_, err := l.ApplyRepayment("r-1", dec("0"), loan.RepayBoth, date(2024, time.February, 1))
	assert.True(t, errors.Is(err, generic.ErrValidation))

	_, err = l.ApplyRepayment("r-1", dec("10"), "Everything", date(2024, time.February, 1))
	assert.True(t, errors.Is(err, generic.ErrValidation))
}
