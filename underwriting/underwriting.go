// Package underwriting scores applicant risk and gates policy activation.
package underwriting

import (
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
)

const (
	MaxScore = 100

	UpdatedBySystem = "System"
	UpdatedByAdmin  = "Admin"
)

// Applicant holds the attributes the score is computed from.
type Applicant struct {
	Age        int
	Occupation policy.RiskLevel
	Smoker     bool
	Alcoholic  bool
}

func ApplicantOf(h *policy.Holder, asOf generic.Date) Applicant {
	return Applicant{
		Age:        h.Age(asOf),
		Occupation: h.Occupation,
		Smoker:     h.Smoker,
		Alcoholic:  h.Alcoholic,
	}
}

type Result struct {
	Score    int
	Category policy.RiskLevel
}

// OccupationRisk maps an occupation's risk level to points. Unset counts as Low.
func OccupationRisk(level policy.RiskLevel) int {
	switch level {
	case policy.RiskUnset, policy.RiskLow:
		return 10
	case policy.RiskModerate:
		return 20
	case policy.RiskHigh:
		return 30
	}
	return 10
}

func AgeRisk(age int) int {
	switch {
	case age < 30:
		return 5
	case age <= 50:
		return 15
	default:
		return 25
	}
}

func HealthRisk(smoker, alcoholic bool) int {
	risk := 0
	if smoker {
		risk += 20
	}
	if alcoholic {
		risk += 15
	}
	return risk
}

func CategoryFor(score int) policy.RiskLevel {
	switch {
	case score < 40:
		return policy.RiskLow
	case score < 70:
		return policy.RiskModerate
	default:
		return policy.RiskHigh
	}
}

// Score is a pure function of the applicant.
func Score(a Applicant) Result {
	score := OccupationRisk(a.Occupation) + AgeRisk(a.Age) + HealthRisk(a.Smoker, a.Alcoholic)
	if score > MaxScore {
		score = MaxScore
	}
	return Result{Score: score, Category: CategoryFor(score)}
}

// =============================================================================
// RECORD - One underwriting record per holder
// =============================================================================

type Record struct {
	HolderID       generic.HolderID
	Score          int
	Category       policy.RiskLevel
	ManualOverride bool
	Remarks        string
	LastUpdatedBy  string
	UpdatedAt      generic.Date
}

// Recompute refreshes the system score. An overridden record keeps the
// human-provided values. Reports whether the category changed.
func (r *Record) Recompute(a Applicant, asOf generic.Date) bool {
	if r.ManualOverride {
		r.LastUpdatedBy = UpdatedByAdmin
		return false
	}
	res := Score(a)
	changed := r.Category != res.Category
	r.Score = res.Score
	r.Category = res.Category
	r.LastUpdatedBy = UpdatedBySystem
	r.UpdatedAt = asOf
	return changed
}

// Override stores human-provided values and stops further recomputation.
func (r *Record) Override(score int, category policy.RiskLevel, remarks string, asOf generic.Date) error {
	if score < 0 || score > MaxScore {
		return generic.Invalid("score", "must be between 0 and %d", MaxScore)
	}
	if category == policy.RiskUnset || !category.Valid() {
		return generic.Invalid("category", "unknown risk category %q", category)
	}
	r.Score = score
	r.Category = category
	r.Remarks = remarks
	r.ManualOverride = true
	r.LastUpdatedBy = UpdatedByAdmin
	r.UpdatedAt = asOf
	return nil
}

// SyncHolder copies the category onto the holder when the record is
// system-computed and the value differs. The holder never writes back.
func SyncHolder(h *policy.Holder, r Record) bool {
	if r.ManualOverride || h.RiskCategory == r.Category {
		return false
	}
	h.RiskCategory = r.Category
	return true
}
