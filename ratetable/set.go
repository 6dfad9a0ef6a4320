package ratetable

import (
	"context"
	"sync"

	"github.com/warp/policy-engine/policy"
)

// =============================================================================
// SET - In-memory rate tables
// =============================================================================

// Set is an in-memory Source. Rows are validated against their group on insert.
type Set struct {
	mu        sync.RWMutex
	mortality []MortalityRate
	duration  []DurationFactor
	gsv       []GSVRate
	ssv       []SSVConfig
	bonus     []BonusRate
}

func NewSet() *Set {
	return &Set{}
}

func (s *Set) AddMortality(r MortalityRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.Validate(s.mortality); err != nil {
		return err
	}
	s.mortality = append(s.mortality, r)
	return nil
}

func (s *Set) AddDuration(r DurationFactor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.Validate(s.duration); err != nil {
		return err
	}
	s.duration = append(s.duration, r)
	return nil
}

func (s *Set) AddGSV(r GSVRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.Validate(s.gsv); err != nil {
		return err
	}
	s.gsv = append(s.gsv, r)
	return nil
}

func (s *Set) AddSSV(r SSVConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.Validate(s.ssv); err != nil {
		return err
	}
	s.ssv = append(s.ssv, r)
	return nil
}

func (s *Set) AddBonus(r BonusRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.Validate(s.bonus); err != nil {
		return err
	}
	s.bonus = append(s.bonus, r)
	return nil
}

func (s *Set) Mortality(_ context.Context, age int) (MortalityRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectMortality(s.mortality, age)
}

func (s *Set) DurationFactor(_ context.Context, t policy.Type, years int) (DurationFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectDuration(s.duration, t, years)
}

func (s *Set) GSVRate(_ context.Context, productCode string, years int) (GSVRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectGSV(s.gsv, productCode, years)
}

func (s *Set) SSVConfig(_ context.Context, productCode string, years int) (SSVConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectSSV(s.ssv, productCode, years)
}

func (s *Set) BonusRate(_ context.Context, productCode string, termYears int) (BonusRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectBonus(s.bonus, productCode, termYears)
}
