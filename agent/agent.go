// Package agent keeps sales agent statistics and monthly commission reports.
// Both are derived state, updated by post-commit event handlers.
package agent

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
)

// DefaultCommissionRate is used when an agent is created without one (percent).
var DefaultCommissionRate = decimal.RequireFromString("5.00")

type Agent struct {
	ID                    string
	Code                  string
	BranchCode            string
	CommissionRate        decimal.Decimal // percent
	Active                bool
	TotalPoliciesSold     int
	TotalPremiumCollected decimal.Decimal
	LastPolicyDate        generic.Date
}

// Report is one agent's activity for one calendar month.
type Report struct {
	AgentID          string
	BranchCode       string
	ReportDate       generic.Date // first day of the month
	Period           string       // YYYY-MM
	PoliciesSold     int
	TotalPremium     decimal.Decimal
	CommissionEarned decimal.Decimal
}

func New(id, code, branch string, rate decimal.Decimal) (*Agent, error) {
	if code == "" {
		return nil, generic.Invalid("agent_code", "is required")
	}
	if rate.IsZero() {
		rate = DefaultCommissionRate
	}
	if rate.IsNegative() || rate.GreaterThan(generic.Hundred) {
		return nil, generic.Invalid("commission_rate", "must be within 0..100, got %s", rate)
	}
	return &Agent{
		ID:                    id,
		Code:                  code,
		BranchCode:            branch,
		CommissionRate:        rate,
		Active:                true,
		TotalPremiumCollected: decimal.Zero,
	}, nil
}

// ReportDate is the report key for the month containing asOf.
func ReportDate(asOf generic.Date) generic.Date {
	return generic.StartOfMonth(asOf.Year(), asOf.Month())
}

func NewReport(a *Agent, asOf generic.Date) *Report {
	d := ReportDate(asOf)
	return &Report{
		AgentID:          a.ID,
		BranchCode:       a.BranchCode,
		ReportDate:       d,
		Period:           fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month())),
		TotalPremium:     decimal.Zero,
		CommissionEarned: decimal.Zero,
	}
}

// Commission is premium × rate / 100, rounded to 2 places.
func Commission(premium, rate decimal.Decimal) decimal.Decimal {
	return generic.RoundMoney(generic.Percent(premium, rate))
}

// RecordSale counts one issued policy.
func (a *Agent) RecordSale(r *Report, asOf generic.Date) {
	a.TotalPoliciesSold++
	a.LastPolicyDate = asOf
	r.PoliciesSold++
}

// RecordPremium credits the premium portion of a payment and returns the
// commission earned on it.
func (a *Agent) RecordPremium(r *Report, premium decimal.Decimal) decimal.Decimal {
	c := Commission(premium, a.CommissionRate)
	a.TotalPremiumCollected = a.TotalPremiumCollected.Add(premium)
	r.TotalPremium = r.TotalPremium.Add(premium)
	r.CommissionEarned = r.CommissionEarned.Add(c)
	return c
}
