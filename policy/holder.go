package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
)

// Issue age limits, inclusive.
const (
	MinIssueAge = 18
	MaxIssueAge = 60
)

// RiskLevel is shared by occupations and underwriting categories.
// The zero value means "not set".
type RiskLevel string

const (
	RiskUnset    RiskLevel = ""
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskUnset, RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// =============================================================================
// HOLDER - One policy contract instance
// =============================================================================

type Holder struct {
	ID           generic.HolderID
	CustomerID   string
	ProductCode  string
	CompanyCode  string
	BranchCode   string
	AgentID      string
	PolicyNumber string

	SumAssured      decimal.Decimal
	DurationYears   int
	DateOfBirth     generic.Date
	PaymentInterval Interval

	Occupation   RiskLevel
	Smoker       bool
	Alcoholic    bool
	RiskCategory RiskLevel

	Status       Status
	StartDate    generic.Date
	MaturityDate generic.Date
}

// Age in whole years on the given day.
func (h *Holder) Age(asOf generic.Date) int {
	return generic.AgeAt(h.DateOfBirth, asOf)
}

// MaturityFor is start date plus the term in calendar years.
func MaturityFor(start generic.Date, years int) generic.Date {
	return start.AddYears(years)
}

// Validate checks the holder against its product as of the given day.
func (h *Holder) Validate(c Contract, asOf generic.Date) error {
	if h.ProductCode != c.Code {
		return generic.Invalid("product_code", "holder product %q does not match contract %q", h.ProductCode, c.Code)
	}
	if !h.SumAssured.IsPositive() {
		return generic.Invalid("sum_assured", "must be positive")
	}
	if h.SumAssured.LessThan(c.MinSumAssured) {
		return generic.Invalid("sum_assured", "sum assured must be at least %s", c.MinSumAssured)
	}
	if h.SumAssured.GreaterThan(c.MaxSumAssured) {
		return generic.Invalid("sum_assured", "sum assured cannot exceed %s", c.MaxSumAssured)
	}
	if h.DurationYears <= 0 {
		return generic.Invalid("duration_years", "must be at least 1")
	}
	if !h.PaymentInterval.Valid() {
		return generic.Invalid("payment_interval", "unsupported interval %q", h.PaymentInterval)
	}
	if h.DateOfBirth.IsZero() {
		return generic.Invalid("date_of_birth", "is required")
	}
	if age := h.Age(asOf); age < MinIssueAge || age > MaxIssueAge {
		return generic.Invalid("date_of_birth", "age must be between %d and %d, got %d", MinIssueAge, MaxIssueAge, age)
	}
	if h.StartDate.IsZero() {
		return generic.Invalid("start_date", "is required")
	}
	if !h.Occupation.Valid() {
		return generic.Invalid("occupation", "unknown risk level %q", h.Occupation)
	}
	return nil
}

// =============================================================================
// POLICY NUMBER
// =============================================================================

// NumberPrefix is company code + branch code + product code.
func NumberPrefix(companyCode, branchCode, productCode string) string {
	return companyCode + branchCode + productCode
}

// NextNumber returns the number following latest under prefix. An empty or
// unparsable latest number starts the sequence at 0001.
func NextNumber(prefix, latest string) string {
	seq := 1
	if latest != "" && strings.HasPrefix(latest, prefix) {
		if n, err := strconv.Atoi(latest[len(prefix):]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}
