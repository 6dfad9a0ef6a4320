/*
Package factory converts JSON catalogs into products and rate tables.

PURPOSE:
  Product definitions and actuarial rate tables are reference data managed by
  an administrator. A catalog file carries all of them so a deployment can be
  seeded or re-rated without code changes.

JSON SCHEMA:
  {
    "products": [{
      "code": "END", "name": "Endowment Plus", "type": "Endowment",
      "base_multiplier": "1.0",
      "min_sum_assured": "50000", "max_sum_assured": "10000000",
      "include_adb": true, "adb_percentage": "0.10",
      "guaranteed_interest_rate": "0.04", "terminal_bonus_rate": "0.10"
    }],
    "mortality":        [{"min_age": 18, "max_age": 30, "rate": "0.30"}],
    "duration_factors": [{"policy_type": "Endowment", "min_years": 1, "max_years": 10, "factor": "1.2"}],
    "gsv_rates":        [{"product": "END", "min_years": 3, "max_years": 5, "rate": "30"}],
    "ssv_configs":      [{"product": "END", "min_years": 3, "max_years": 10, "factor": "40", "eligibility_years": 3}],
    "bonus_rates":      [{"product": "END", "year": 2024, "min_years": 5, "max_years": 15, "bonus_per_thousand": "40"}],
    "agents":           [{"id": "ag-1", "code": "A001", "branch": "01", "commission_rate": "5"}]
  }

  Decimals may be written as strings or numbers; strings avoid float
  rounding and are preferred.

VALIDATION:
  Every product is validated and every rate row is checked against the rows
  before it in the same table, using the same overlap rules as the stores.
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/ratetable"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type CatalogJSON struct {
	Products        []ProductJSON   `json:"products"`
	Mortality       []MortalityJSON `json:"mortality"`
	DurationFactors []DurationJSON  `json:"duration_factors"`
	GSVRates        []GSVJSON       `json:"gsv_rates"`
	SSVConfigs      []SSVJSON       `json:"ssv_configs"`
	BonusRates      []BonusJSON     `json:"bonus_rates"`
	Agents          []AgentJSON     `json:"agents,omitempty"`
}

type ProductJSON struct {
	Code                   string          `json:"code"`
	Name                   string          `json:"name"`
	Type                   string          `json:"type"`
	BaseMultiplier         decimal.Decimal `json:"base_multiplier"`
	MinSumAssured          decimal.Decimal `json:"min_sum_assured"`
	MaxSumAssured          decimal.Decimal `json:"max_sum_assured"`
	IncludeADB             bool            `json:"include_adb,omitempty"`
	IncludePTD             bool            `json:"include_ptd,omitempty"`
	ADBPercentage          decimal.Decimal `json:"adb_percentage,omitempty"`
	PTDPercentage          decimal.Decimal `json:"ptd_percentage,omitempty"`
	GuaranteedInterestRate decimal.Decimal `json:"guaranteed_interest_rate"`
	TerminalBonusRate      decimal.Decimal `json:"terminal_bonus_rate"`
}

type MortalityJSON struct {
	MinAge int             `json:"min_age"`
	MaxAge int             `json:"max_age"`
	Rate   decimal.Decimal `json:"rate"`
}

type DurationJSON struct {
	PolicyType string          `json:"policy_type"`
	MinYears   int             `json:"min_years"`
	MaxYears   int             `json:"max_years"`
	Factor     decimal.Decimal `json:"factor"`
}

type GSVJSON struct {
	Product  string          `json:"product"`
	MinYears int             `json:"min_years"`
	MaxYears int             `json:"max_years"`
	Rate     decimal.Decimal `json:"rate"`
}

type SSVJSON struct {
	Product          string          `json:"product"`
	MinYears         int             `json:"min_years"`
	MaxYears         int             `json:"max_years"`
	Factor           decimal.Decimal `json:"factor"`
	EligibilityYears int             `json:"eligibility_years"`
}

type BonusJSON struct {
	Product          string          `json:"product"`
	Year             int             `json:"year"`
	MinYears         int             `json:"min_years"`
	MaxYears         int             `json:"max_years"`
	BonusPerThousand decimal.Decimal `json:"bonus_per_thousand"`
}

type AgentJSON struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Branch         string          `json:"branch"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is a validated set of reference data ready to install.
type Catalog struct {
	Contracts []policy.Contract
	Mortality []ratetable.MortalityRate
	Duration  []ratetable.DurationFactor
	GSV       []ratetable.GSVRate
	SSV       []ratetable.SSVConfig
	Bonus     []ratetable.BonusRate
	Agents    []*agent.Agent
}

// Parse decodes and validates a JSON catalog.
func Parse(data []byte) (*Catalog, error) {
	var cj CatalogJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return FromJSON(cj)
}

// FromJSON converts and validates a decoded catalog.
func FromJSON(cj CatalogJSON) (*Catalog, error) {
	cat := &Catalog{}
	seen := make(map[string]bool, len(cj.Products))

	for _, p := range cj.Products {
		c := policy.Contract{
			Code:                   p.Code,
			Name:                   p.Name,
			Type:                   policy.Type(p.Type),
			BaseMultiplier:         p.BaseMultiplier,
			MinSumAssured:          p.MinSumAssured,
			MaxSumAssured:          p.MaxSumAssured,
			IncludeADB:             p.IncludeADB,
			IncludePTD:             p.IncludePTD,
			ADBPercentage:          p.ADBPercentage,
			PTDPercentage:          p.PTDPercentage,
			GuaranteedInterestRate: p.GuaranteedInterestRate,
			TerminalBonusRate:      p.TerminalBonusRate,
		}
		if c.BaseMultiplier.IsZero() {
			c.BaseMultiplier = decimal.NewFromInt(1)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("product %q: %w", p.Code, err)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("product %q: defined twice", c.Code)
		}
		seen[c.Code] = true
		cat.Contracts = append(cat.Contracts, c)
	}

	// A scratch Set applies the same overlap rules the stores use.
	set := ratetable.NewSet()

	for i, m := range cj.Mortality {
		r := ratetable.MortalityRate{Band: ratetable.Band{Min: m.MinAge, Max: m.MaxAge}, Rate: m.Rate}
		if err := set.AddMortality(r); err != nil {
			return nil, fmt.Errorf("mortality[%d]: %w", i, err)
		}
		cat.Mortality = append(cat.Mortality, r)
	}
	for i, d := range cj.DurationFactors {
		r := ratetable.DurationFactor{Band: ratetable.Band{Min: d.MinYears, Max: d.MaxYears}, PolicyType: policy.Type(d.PolicyType), Factor: d.Factor}
		if err := set.AddDuration(r); err != nil {
			return nil, fmt.Errorf("duration_factors[%d]: %w", i, err)
		}
		cat.Duration = append(cat.Duration, r)
	}
	for i, g := range cj.GSVRates {
		r := ratetable.GSVRate{Band: ratetable.Band{Min: g.MinYears, Max: g.MaxYears}, ProductCode: g.Product, Rate: g.Rate}
		if err := set.AddGSV(r); err != nil {
			return nil, fmt.Errorf("gsv_rates[%d]: %w", i, err)
		}
		cat.GSV = append(cat.GSV, r)
	}
	for i, s := range cj.SSVConfigs {
		r := ratetable.SSVConfig{Band: ratetable.Band{Min: s.MinYears, Max: s.MaxYears}, ProductCode: s.Product, Factor: s.Factor, EligibilityYears: s.EligibilityYears}
		if err := set.AddSSV(r); err != nil {
			return nil, fmt.Errorf("ssv_configs[%d]: %w", i, err)
		}
		cat.SSV = append(cat.SSV, r)
	}
	for i, b := range cj.BonusRates {
		r := ratetable.BonusRate{Band: ratetable.Band{Min: b.MinYears, Max: b.MaxYears}, ProductCode: b.Product, Year: b.Year, BonusPerThousand: b.BonusPerThousand}
		if err := set.AddBonus(r); err != nil {
			return nil, fmt.Errorf("bonus_rates[%d]: %w", i, err)
		}
		cat.Bonus = append(cat.Bonus, r)
	}
	for i, a := range cj.Agents {
		ag, err := agent.New(a.ID, a.Code, a.Branch, a.CommissionRate)
		if err != nil {
			return nil, fmt.Errorf("agents[%d]: %w", i, err)
		}
		cat.Agents = append(cat.Agents, ag)
	}
	return cat, nil
}

// Source returns the catalog's rate tables as an in-memory ratetable.Set.
func (c *Catalog) Source() (*ratetable.Set, error) {
	s := ratetable.NewSet()
	for _, r := range c.Mortality {
		if err := s.AddMortality(r); err != nil {
			return nil, err
		}
	}
	for _, r := range c.Duration {
		if err := s.AddDuration(r); err != nil {
			return nil, err
		}
	}
	for _, r := range c.GSV {
		if err := s.AddGSV(r); err != nil {
			return nil, err
		}
	}
	for _, r := range c.SSV {
		if err := s.AddSSV(r); err != nil {
			return nil, err
		}
	}
	for _, r := range c.Bonus {
		if err := s.AddBonus(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Contract returns the product with the given code.
func (c *Catalog) Contract(code string) (policy.Contract, bool) {
	for _, ct := range c.Contracts {
		if ct.Code == code {
			return ct, true
		}
	}
	return policy.Contract{}, false
}
