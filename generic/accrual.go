package generic

import "github.com/shopspring/decimal"

// =============================================================================
// ACCRUAL SCHEDULE - Interface for how monetary amounts accumulate over time
// =============================================================================

// AccrualSchedule generates accrual events for a time range.
// Implementations define the business logic (yearly bonus, daily interest).
type AccrualSchedule interface {
	// GenerateAccruals returns accrual events in [from, to].
	GenerateAccruals(from, to Date) []AccrualEvent
}

// AccrualEvent represents a single accrual occurrence.
type AccrualEvent struct {
	At     Date
	Amount decimal.Decimal
	Reason string
	// Key identifies the accrual slot (policy year, day) for idempotency.
	Key string
}

// Sum totals the amounts of a set of events.
func Sum(events []AccrualEvent) decimal.Decimal {
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(e.Amount)
	}
	return total
}
