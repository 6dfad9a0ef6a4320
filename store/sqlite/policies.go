package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/underwriting"
)

// =============================================================================
// CONTRACT STORE
// =============================================================================

const contractColumns = `code, name, policy_type, base_multiplier, min_sum_assured, max_sum_assured,
	include_adb, include_ptd, adb_percentage, ptd_percentage, guaranteed_interest_rate, terminal_bonus_rate`

// SaveContract inserts or replaces a product definition.
func (r *repo) SaveContract(ctx context.Context, c policy.Contract) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO contracts (`+contractColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			policy_type = excluded.policy_type,
			base_multiplier = excluded.base_multiplier,
			min_sum_assured = excluded.min_sum_assured,
			max_sum_assured = excluded.max_sum_assured,
			include_adb = excluded.include_adb,
			include_ptd = excluded.include_ptd,
			adb_percentage = excluded.adb_percentage,
			ptd_percentage = excluded.ptd_percentage,
			guaranteed_interest_rate = excluded.guaranteed_interest_rate,
			terminal_bonus_rate = excluded.terminal_bonus_rate`,
		c.Code, c.Name, string(c.Type), c.BaseMultiplier, c.MinSumAssured, c.MaxSumAssured,
		c.IncludeADB, c.IncludePTD, c.ADBPercentage, c.PTDPercentage,
		c.GuaranteedInterestRate, c.TerminalBonusRate,
	)
	return wrapInsert(err, "contract")
}

func (r *repo) Contract(ctx context.Context, code string) (policy.Contract, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE code = ?`, code)
	c, err := scanContract(row)
	if err := one(err, "contract", code); err != nil {
		return policy.Contract{}, err
	}
	return c, nil
}

func (r *repo) Contracts(ctx context.Context) ([]policy.Contract, error) {
	return queryRows(ctx, r.q, `SELECT `+contractColumns+` FROM contracts ORDER BY code`, nil,
		func(rows *sql.Rows) (policy.Contract, error) { return scanContract(rows) })
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(s scanner) (policy.Contract, error) {
	var c policy.Contract
	var typ string
	err := s.Scan(&c.Code, &c.Name, &typ, &c.BaseMultiplier, &c.MinSumAssured, &c.MaxSumAssured,
		&c.IncludeADB, &c.IncludePTD, &c.ADBPercentage, &c.PTDPercentage,
		&c.GuaranteedInterestRate, &c.TerminalBonusRate)
	c.Type = policy.Type(typ)
	return c, err
}

// =============================================================================
// HOLDER STORE
// =============================================================================

const holderColumns = `id, customer_id, product_code, company_code, branch_code, agent_id, policy_number,
	sum_assured, duration_years, date_of_birth, payment_interval, occupation, smoker, alcoholic,
	risk_category, status, start_date, maturity_date`

// SaveHolder inserts or replaces a holder. A policy number already used by
// another holder is a validation error.
func (r *repo) SaveHolder(ctx context.Context, h *policy.Holder) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO holders (`+holderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			product_code = excluded.product_code,
			company_code = excluded.company_code,
			branch_code = excluded.branch_code,
			agent_id = excluded.agent_id,
			policy_number = excluded.policy_number,
			sum_assured = excluded.sum_assured,
			duration_years = excluded.duration_years,
			date_of_birth = excluded.date_of_birth,
			payment_interval = excluded.payment_interval,
			occupation = excluded.occupation,
			smoker = excluded.smoker,
			alcoholic = excluded.alcoholic,
			risk_category = excluded.risk_category,
			status = excluded.status,
			start_date = excluded.start_date,
			maturity_date = excluded.maturity_date`,
		string(h.ID), h.CustomerID, h.ProductCode, h.CompanyCode, h.BranchCode,
		nullString(h.AgentID), nullString(h.PolicyNumber),
		h.SumAssured, h.DurationYears, dateArg(h.DateOfBirth), string(h.PaymentInterval),
		nullString(string(h.Occupation)), h.Smoker, h.Alcoholic,
		nullString(string(h.RiskCategory)), string(h.Status),
		dateArg(h.StartDate), dateArg(h.MaturityDate),
	)
	if err != nil {
		if isUniqueConstraintError(err) && strings.Contains(err.Error(), "policy_number") {
			return generic.Invalid("policy_number", "policy number %s is already assigned", h.PolicyNumber)
		}
		return fmt.Errorf("failed to save holder: %w", err)
	}
	return nil
}

func (r *repo) Holder(ctx context.Context, id generic.HolderID) (*policy.Holder, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+holderColumns+` FROM holders WHERE id = ?`, string(id))
	h, err := scanHolder(row)
	if err := one(err, "policy holder", string(id)); err != nil {
		return nil, err
	}
	return h, nil
}

// Holders lists holders in a status, or every holder when status is empty.
func (r *repo) Holders(ctx context.Context, status policy.Status) ([]*policy.Holder, error) {
	query := `SELECT ` + holderColumns + ` FROM holders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY rowid`
	return queryRows(ctx, r.q, query, args,
		func(rows *sql.Rows) (*policy.Holder, error) { return scanHolder(rows) })
}

// LatestPolicyNumber returns the highest policy number issued under prefix.
func (r *repo) LatestPolicyNumber(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.q.QueryRowContext(ctx, `
		SELECT policy_number FROM holders
		WHERE policy_number IS NOT NULL AND substr(policy_number, 1, ?) = ?
		ORDER BY length(policy_number) DESC, policy_number DESC
		LIMIT 1`, len(prefix), prefix).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load latest policy number: %w", err)
	}
	return number, nil
}

func scanHolder(s scanner) (*policy.Holder, error) {
	var (
		h                        policy.Holder
		id, interval, status     string
		agentID, number          sql.NullString
		occupation, riskCategory sql.NullString
	)
	err := s.Scan(&id, &h.CustomerID, &h.ProductCode, &h.CompanyCode, &h.BranchCode, &agentID, &number,
		&h.SumAssured, &h.DurationYears, dateCol{&h.DateOfBirth}, &interval, &occupation, &h.Smoker, &h.Alcoholic,
		&riskCategory, &status, dateCol{&h.StartDate}, dateCol{&h.MaturityDate})
	if err != nil {
		return nil, err
	}
	h.ID = generic.HolderID(id)
	h.AgentID = agentID.String
	h.PolicyNumber = number.String
	h.PaymentInterval = policy.Interval(interval)
	h.Occupation = policy.RiskLevel(occupation.String)
	h.RiskCategory = policy.RiskLevel(riskCategory.String)
	h.Status = policy.Status(status)
	return &h, nil
}

// =============================================================================
// UNDERWRITING STORE
// =============================================================================

func (r *repo) SaveUnderwriting(ctx context.Context, u *underwriting.Record) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO underwriting (holder_id, score, category, manual_override, remarks, last_updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(holder_id) DO UPDATE SET
			score = excluded.score,
			category = excluded.category,
			manual_override = excluded.manual_override,
			remarks = excluded.remarks,
			last_updated_by = excluded.last_updated_by,
			updated_at = excluded.updated_at`,
		string(u.HolderID), u.Score, nullString(string(u.Category)), u.ManualOverride,
		nullString(u.Remarks), nullString(u.LastUpdatedBy), dateArg(u.UpdatedAt),
	)
	return wrapInsert(err, "underwriting record")
}

func (r *repo) Underwriting(ctx context.Context, holderID generic.HolderID) (*underwriting.Record, error) {
	var (
		u                          underwriting.Record
		id                         string
		category, remarks, updater sql.NullString
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT holder_id, score, category, manual_override, remarks, last_updated_by, updated_at
		FROM underwriting WHERE holder_id = ?`, string(holderID)).
		Scan(&id, &u.Score, &category, &u.ManualOverride, &remarks, &updater, dateCol{&u.UpdatedAt})
	if err := one(err, "underwriting record", string(holderID)); err != nil {
		return nil, err
	}
	u.HolderID = generic.HolderID(id)
	u.Category = policy.RiskLevel(category.String)
	u.Remarks = remarks.String
	u.LastUpdatedBy = updater.String
	return &u, nil
}
