package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/ratetable"
)

// =============================================================================
// RATE TABLES (ratetable.Source and engine.RateWriter)
// =============================================================================
//
// Each writer loads the rows of the key group, validates the new row with the
// same rule the in-memory Set uses, then inserts. Lookups load the candidate
// rows and apply the shared ratetable.Select* rules.

func (r *repo) AddMortality(ctx context.Context, m ratetable.MortalityRate) error {
	existing, err := r.mortalityRows(ctx)
	if err != nil {
		return err
	}
	if err := m.Validate(existing); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO mortality_rates (min_age, max_age, rate) VALUES (?, ?, ?)`,
		m.Min, m.Max, m.Rate)
	return wrapInsert(err, "mortality rate")
}

func (r *repo) AddDuration(ctx context.Context, d ratetable.DurationFactor) error {
	existing, err := r.durationRows(ctx, d.PolicyType)
	if err != nil {
		return err
	}
	if err := d.Validate(existing); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO duration_factors (policy_type, min_years, max_years, factor) VALUES (?, ?, ?, ?)`,
		string(d.PolicyType), d.Min, d.Max, d.Factor)
	return wrapInsert(err, "duration factor")
}

func (r *repo) AddGSV(ctx context.Context, g ratetable.GSVRate) error {
	existing, err := r.gsvRows(ctx, g.ProductCode)
	if err != nil {
		return err
	}
	if err := g.Validate(existing); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO gsv_rates (product_code, min_year, max_year, rate) VALUES (?, ?, ?, ?)`,
		g.ProductCode, g.Min, g.Max, g.Rate)
	return wrapInsert(err, "gsv rate")
}

func (r *repo) AddSSV(ctx context.Context, s ratetable.SSVConfig) error {
	existing, err := r.ssvRows(ctx, s.ProductCode)
	if err != nil {
		return err
	}
	if err := s.Validate(existing); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO ssv_configs (product_code, min_year, max_year, factor, eligibility_years) VALUES (?, ?, ?, ?, ?)`,
		s.ProductCode, s.Min, s.Max, s.Factor, s.EligibilityYears)
	return wrapInsert(err, "ssv config")
}

func (r *repo) AddBonus(ctx context.Context, b ratetable.BonusRate) error {
	existing, err := r.bonusRows(ctx, b.ProductCode)
	if err != nil {
		return err
	}
	if err := b.Validate(existing); err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO bonus_rates (product_code, year, min_term, max_term, bonus_per_thousand) VALUES (?, ?, ?, ?, ?)`,
		b.ProductCode, b.Year, b.Min, b.Max, b.BonusPerThousand)
	return wrapInsert(err, "bonus rate")
}

// Lookups

func (r *repo) Mortality(ctx context.Context, age int) (ratetable.MortalityRate, error) {
	rows, err := r.mortalityRows(ctx)
	if err != nil {
		return ratetable.MortalityRate{}, err
	}
	return ratetable.SelectMortality(rows, age)
}

func (r *repo) DurationFactor(ctx context.Context, t policy.Type, years int) (ratetable.DurationFactor, error) {
	rows, err := r.durationRows(ctx, t)
	if err != nil {
		return ratetable.DurationFactor{}, err
	}
	return ratetable.SelectDuration(rows, t, years)
}

func (r *repo) GSVRate(ctx context.Context, productCode string, years int) (ratetable.GSVRate, error) {
	rows, err := r.gsvRows(ctx, productCode)
	if err != nil {
		return ratetable.GSVRate{}, err
	}
	return ratetable.SelectGSV(rows, productCode, years)
}

func (r *repo) SSVConfig(ctx context.Context, productCode string, years int) (ratetable.SSVConfig, error) {
	rows, err := r.ssvRows(ctx, productCode)
	if err != nil {
		return ratetable.SSVConfig{}, err
	}
	return ratetable.SelectSSV(rows, productCode, years)
}

func (r *repo) BonusRate(ctx context.Context, productCode string, termYears int) (ratetable.BonusRate, error) {
	rows, err := r.bonusRows(ctx, productCode)
	if err != nil {
		return ratetable.BonusRate{}, err
	}
	return ratetable.SelectBonus(rows, productCode, termYears)
}

// Row loaders

func (r *repo) mortalityRows(ctx context.Context) ([]ratetable.MortalityRate, error) {
	return queryRows(ctx, r.q, `SELECT min_age, max_age, rate FROM mortality_rates ORDER BY min_age`, nil,
		func(rows *sql.Rows) (ratetable.MortalityRate, error) {
			var m ratetable.MortalityRate
			err := rows.Scan(&m.Min, &m.Max, &m.Rate)
			return m, err
		})
}

func (r *repo) durationRows(ctx context.Context, t policy.Type) ([]ratetable.DurationFactor, error) {
	return queryRows(ctx, r.q, `SELECT policy_type, min_years, max_years, factor FROM duration_factors
		WHERE policy_type = ? ORDER BY min_years`, []any{string(t)},
		func(rows *sql.Rows) (ratetable.DurationFactor, error) {
			var d ratetable.DurationFactor
			var typ string
			err := rows.Scan(&typ, &d.Min, &d.Max, &d.Factor)
			d.PolicyType = policy.Type(typ)
			return d, err
		})
}

func (r *repo) gsvRows(ctx context.Context, productCode string) ([]ratetable.GSVRate, error) {
	return queryRows(ctx, r.q, `SELECT product_code, min_year, max_year, rate FROM gsv_rates
		WHERE product_code = ? ORDER BY min_year`, []any{productCode},
		func(rows *sql.Rows) (ratetable.GSVRate, error) {
			var g ratetable.GSVRate
			err := rows.Scan(&g.ProductCode, &g.Min, &g.Max, &g.Rate)
			return g, err
		})
}

func (r *repo) ssvRows(ctx context.Context, productCode string) ([]ratetable.SSVConfig, error) {
	return queryRows(ctx, r.q, `SELECT product_code, min_year, max_year, factor, eligibility_years FROM ssv_configs
		WHERE product_code = ? ORDER BY min_year`, []any{productCode},
		func(rows *sql.Rows) (ratetable.SSVConfig, error) {
			var s ratetable.SSVConfig
			err := rows.Scan(&s.ProductCode, &s.Min, &s.Max, &s.Factor, &s.EligibilityYears)
			return s, err
		})
}

func (r *repo) bonusRows(ctx context.Context, productCode string) ([]ratetable.BonusRate, error) {
	return queryRows(ctx, r.q, `SELECT product_code, year, min_term, max_term, bonus_per_thousand FROM bonus_rates
		WHERE product_code = ? ORDER BY year, min_term`, []any{productCode},
		func(rows *sql.Rows) (ratetable.BonusRate, error) {
			var b ratetable.BonusRate
			err := rows.Scan(&b.ProductCode, &b.Year, &b.Min, &b.Max, &b.BonusPerThousand)
			return b, err
		})
}

// queryRows runs a query and scans every row with scan.
func queryRows[T any](ctx context.Context, q querier, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func wrapInsert(err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	return nil
}
