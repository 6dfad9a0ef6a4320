package generic

// =============================================================================
// PERIOD - A closed span of days
// =============================================================================

// Period is the closed span [Start, End].
//
// Examples:
//   - Policy year 3 of a policy started 2022-03-15: 2024-03-15 - 2025-03-14
//   - Payment interval: last due date - next due date
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the day is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of days covered, inclusive of both ends.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// POLICY YEARS - Anniversary-anchored periods
// =============================================================================

// PolicyYear returns policy year n (1-based) for a policy anchored at start.
// Year n begins on the (n-1)th anniversary and ends the day before the nth.
func PolicyYear(start Date, n int) Period {
	from := start.AddYears(n - 1)
	return Period{Start: from, End: start.AddYears(n).AddDays(-1)}
}

// PolicyYearFor returns the 1-based policy year containing the day, or 0 if
// the day precedes the start.
func PolicyYearFor(start, d Date) int {
	if d.Before(start) {
		return 0
	}
	n := d.Year() - start.Year()
	if start.AddYears(n).After(d) {
		n--
	}
	return n + 1
}

// CompletedPolicyYears counts anniversaries reached on or before the day.
func CompletedPolicyYears(start, d Date) int {
	if y := PolicyYearFor(start, d); y > 0 {
		return y - 1
	}
	return 0
}
