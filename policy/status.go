package policy

import "github.com/warp/policy-engine/generic"

// =============================================================================
// STATUS MACHINE
// =============================================================================

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusActive    Status = "Active"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
	StatusMatured   Status = "Matured"
	StatusExpired   Status = "Expired"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusActive, StatusRejected, StatusCancelled},
	StatusApproved: {StatusActive, StatusRejected, StatusCancelled},
	StatusActive:   {StatusMatured, StatusCancelled, StatusExpired},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusActive, StatusRejected,
		StatusCancelled, StatusMatured, StatusExpired:
		return true
	}
	return false
}

// CanTransition reports whether the move is allowed. Terminal states have no exits.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Transition moves the holder to a new status. Moving into Active assigns the
// policy number exactly once, using latest as the highest number already
// issued under the holder's prefix. It reports whether a number was assigned.
func (h *Holder) Transition(to Status, latest string) (assigned bool, err error) {
	if !h.Status.CanTransition(to) {
		return false, &generic.TransitionError{Machine: "policy", From: string(h.Status), To: string(to)}
	}
	h.Status = to
	if to == StatusActive && h.PolicyNumber == "" {
		h.PolicyNumber = NextNumber(h.NumberPrefix(), latest)
		assigned = true
	}
	if h.MaturityDate.IsZero() {
		h.MaturityDate = MaturityFor(h.StartDate, h.DurationYears)
	}
	return assigned, nil
}

func (h *Holder) NumberPrefix() string {
	return NumberPrefix(h.CompanyCode, h.BranchCode, h.ProductCode)
}

// Accruing reports whether bonuses and maturity values apply.
func (h *Holder) Accruing() bool {
	return h.Status == StatusActive || h.Status == StatusMatured
}
