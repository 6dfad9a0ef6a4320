package factory

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRESETS
// =============================================================================

// DefaultCatalogJSON seeds a fresh deployment: a plain endowment, an
// endowment with both riders, a term product and one sales agent.
//
// An END policy for a 40-year-old with sum assured 500000 over 10 years
// prices at 500000 × 0.5% × 1.2 = 3000.00 a year.
const DefaultCatalogJSON = `{
  "products": [
    {
      "code": "END", "name": "Endowment", "type": "Endowment",
      "base_multiplier": "1.0",
      "min_sum_assured": "50000", "max_sum_assured": "10000000",
      "guaranteed_interest_rate": "0.04", "terminal_bonus_rate": "0.10"
    },
    {
      "code": "ENP", "name": "Endowment Protect", "type": "Endowment",
      "base_multiplier": "1.1",
      "min_sum_assured": "100000", "max_sum_assured": "20000000",
      "include_adb": true, "adb_percentage": "0.10",
      "include_ptd": true, "ptd_percentage": "0.05",
      "guaranteed_interest_rate": "0.035", "terminal_bonus_rate": "0.15"
    },
    {
      "code": "TRM", "name": "Term Life", "type": "Term",
      "base_multiplier": "1.0",
      "min_sum_assured": "100000", "max_sum_assured": "50000000",
      "guaranteed_interest_rate": "0", "terminal_bonus_rate": "0"
    }
  ],
  "mortality": [
    {"min_age": 18, "max_age": 30, "rate": "0.30"},
    {"min_age": 31, "max_age": 45, "rate": "0.50"},
    {"min_age": 46, "max_age": 60, "rate": "0.90"}
  ],
  "duration_factors": [
    {"policy_type": "Endowment", "min_years": 1, "max_years": 10, "factor": "1.2"},
    {"policy_type": "Endowment", "min_years": 11, "max_years": 20, "factor": "1.1"},
    {"policy_type": "Endowment", "min_years": 21, "max_years": 40, "factor": "1.0"},
    {"policy_type": "Term", "min_years": 1, "max_years": 40, "factor": "1.0"}
  ],
  "gsv_rates": [
    {"product": "END", "min_years": 3, "max_years": 5, "rate": "30"},
    {"product": "END", "min_years": 5, "max_years": 10, "rate": "50"},
    {"product": "END", "min_years": 10, "max_years": 40, "rate": "70"},
    {"product": "ENP", "min_years": 3, "max_years": 40, "rate": "40"},
    {"product": "TRM", "min_years": 3, "max_years": 40, "rate": "20"}
  ],
  "ssv_configs": [
    {"product": "END", "min_years": 3, "max_years": 10, "factor": "40", "eligibility_years": 3},
    {"product": "END", "min_years": 11, "max_years": 40, "factor": "60", "eligibility_years": 10},
    {"product": "ENP", "min_years": 3, "max_years": 40, "factor": "45", "eligibility_years": 3}
  ],
  "bonus_rates": [
    {"product": "END", "year": 2024, "min_years": 1, "max_years": 15, "bonus_per_thousand": "40"},
    {"product": "END", "year": 2024, "min_years": 16, "max_years": 40, "bonus_per_thousand": "50"},
    {"product": "ENP", "year": 2024, "min_years": 1, "max_years": 40, "bonus_per_thousand": "45"}
  ],
  "agents": [
    {"id": "ag-001", "code": "A001", "branch": "01", "commission_rate": "5"}
  ]
}`

// DefaultCatalog parses DefaultCatalogJSON.
func DefaultCatalog() (*Catalog, error) {
	return Parse([]byte(DefaultCatalogJSON))
}

// EndowmentProductJSON renders a single endowment product definition.
func EndowmentProductJSON(code, name string, multiplier, guaranteedRate, terminalRate decimal.Decimal) string {
	return fmt.Sprintf(`{
  "code": %q, "name": %q, "type": "Endowment",
  "base_multiplier": %q,
  "min_sum_assured": "50000", "max_sum_assured": "10000000",
  "guaranteed_interest_rate": %q, "terminal_bonus_rate": %q
}`, code, name, multiplier.String(), guaranteedRate.String(), terminalRate.String())
}

// TermProductJSON renders a single term product definition.
func TermProductJSON(code, name string) string {
	return fmt.Sprintf(`{
  "code": %q, "name": %q, "type": "Term",
  "base_multiplier": "1.0",
  "min_sum_assured": "100000", "max_sum_assured": "50000000",
  "guaranteed_interest_rate": "0", "terminal_bonus_rate": "0"
}`, code, name)
}
