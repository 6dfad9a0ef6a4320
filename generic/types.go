/*
Package generic provides the domain-agnostic primitives of the policy engine.

PURPOSE:
  Every actuarial component (premium, valuation, bonus, loan, claims) needs
  the same small toolbox: exact decimal money with one rounding rule, dates
  with calendar-correct month arithmetic, an append-only ledger of monetary
  entries, and an error taxonomy. This package holds that toolbox and knows
  nothing about insurance products.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money rounding: RoundMoney quantizes to 2 decimal places, half away from zero
  - Entry: An immutable ledger record (bonus credit, premium payment, repayment)
  - Typed identifiers for holders and entries

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, never float64 for money
  2. One rounding rule: every monetary output passes through RoundMoney
  3. Immutability: Entries are never modified, only appended
  4. Idempotency: Entries carry an idempotency key (e.g. "bonus:<holder>:<year>")

USAGE:
  premium := generic.RoundMoney(sumAssured.Mul(rate).Div(generic.Hundred))
  entry := generic.Entry{
      HolderID:       "ph-1",
      Account:        generic.AccountBonus,
      Type:           generic.EntryBonusCredit,
      Amount:         premium,
      IdempotencyKey: "bonus:ph-1:3",
  }

SEE ALSO:
  - ledger.go: Entry persistence interface
  - time.go: Date arithmetic
  - errors.go: Error taxonomy
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact decimal arithmetic with a single rounding rule
// =============================================================================

// MoneyPlaces is the scale of every monetary output.
const MoneyPlaces int32 = 2

var (
	Hundred     = decimal.NewFromInt(100)
	Thousand    = decimal.NewFromInt(1000)
	DaysPerYear = decimal.NewFromInt(365)
)

// RoundMoney quantizes to 2 decimal places, rounding half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// Percent returns d × pct / 100.
func Percent(d, pct decimal.Decimal) decimal.Decimal {
	return d.Mul(pct).Div(Hundred)
}

// MaxZero floors d at zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type HolderID string
type EntryID string

// =============================================================================
// ENTRY - Atomic monetary record in the append-only ledger
// =============================================================================

// Account groups entries that are summed together.
type Account string

const (
	AccountBonus   Account = "bonus"   // Accrued bonus credits per policy year
	AccountPremium Account = "premium" // Premium payment history
	AccountLoan    Account = "loan"    // Loan repayment history
)

type EntryType string

const (
	EntryBonusCredit    EntryType = "bonus_credit"
	EntryPremiumPayment EntryType = "premium_payment"
	EntryLoanRepayment  EntryType = "loan_repayment"
)

type Entry struct {
	ID             EntryID
	HolderID       HolderID
	Account        Account
	Type           EntryType
	EffectiveAt    Date
	Amount         decimal.Decimal
	ReferenceID    string
	Reason         string
	IdempotencyKey string
	Metadata       map[string]string

	// Audit fields
	CreatedBy string // "system" or an admin identifier
	CreatedAt Date
}
