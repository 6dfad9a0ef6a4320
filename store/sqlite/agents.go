package sqlite

import (
	"context"
	"database/sql"

	"github.com/warp/policy-engine/agent"
	"github.com/warp/policy-engine/generic"
)

// =============================================================================
// AGENT STORE
// =============================================================================

const agentColumns = `id, code, branch_code, commission_rate, active, total_policies_sold,
	total_premium_collected, last_policy_date`

// SaveAgent inserts or replaces an agent. Agent codes are unique.
func (r *repo) SaveAgent(ctx context.Context, a *agent.Agent) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			branch_code = excluded.branch_code,
			commission_rate = excluded.commission_rate,
			active = excluded.active,
			total_policies_sold = excluded.total_policies_sold,
			total_premium_collected = excluded.total_premium_collected,
			last_policy_date = excluded.last_policy_date`,
		a.ID, a.Code, a.BranchCode, a.CommissionRate, a.Active, a.TotalPoliciesSold,
		a.TotalPremiumCollected, dateArg(a.LastPolicyDate),
	)
	if isUniqueConstraintError(err) {
		return generic.Invalid("code", "agent code %s is already registered", a.Code)
	}
	return wrapInsert(err, "agent")
}

func (r *repo) Agent(ctx context.Context, id string) (*agent.Agent, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)
	a, err := scanAgent(row)
	if err := one(err, "agent", id); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repo) Agents(ctx context.Context) ([]*agent.Agent, error) {
	return queryRows(ctx, r.q, `SELECT `+agentColumns+` FROM agents ORDER BY code`, nil,
		func(rows *sql.Rows) (*agent.Agent, error) { return scanAgent(rows) })
}

func scanAgent(s scanner) (*agent.Agent, error) {
	var a agent.Agent
	err := s.Scan(&a.ID, &a.Code, &a.BranchCode, &a.CommissionRate, &a.Active, &a.TotalPoliciesSold,
		&a.TotalPremiumCollected, dateCol{&a.LastPolicyDate})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// AGENT REPORT STORE - One row per agent per month
// =============================================================================

const agentReportColumns = `agent_id, report_date, branch_code, period, policies_sold, total_premium, commission_earned`

func (r *repo) SaveAgentReport(ctx context.Context, rep *agent.Report) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO agent_reports (`+agentReportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, report_date) DO UPDATE SET
			branch_code = excluded.branch_code,
			period = excluded.period,
			policies_sold = excluded.policies_sold,
			total_premium = excluded.total_premium,
			commission_earned = excluded.commission_earned`,
		rep.AgentID, dateArg(rep.ReportDate), rep.BranchCode, rep.Period, rep.PoliciesSold,
		rep.TotalPremium, rep.CommissionEarned,
	)
	return wrapInsert(err, "agent report")
}

func (r *repo) AgentReport(ctx context.Context, agentID string, reportDate generic.Date) (*agent.Report, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+agentReportColumns+` FROM agent_reports
		WHERE agent_id = ? AND report_date = ?`, agentID, reportDate.String())
	rep, err := scanAgentReport(row)
	if err := one(err, "agent report", agentID+"@"+reportDate.String()); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *repo) AgentReports(ctx context.Context, agentID string) ([]*agent.Report, error) {
	return queryRows(ctx, r.q, `SELECT `+agentReportColumns+` FROM agent_reports
		WHERE agent_id = ? ORDER BY report_date`, []any{agentID},
		func(rows *sql.Rows) (*agent.Report, error) { return scanAgentReport(rows) })
}

func scanAgentReport(s scanner) (*agent.Report, error) {
	var rep agent.Report
	err := s.Scan(&rep.AgentID, dateCol{&rep.ReportDate}, &rep.BranchCode, &rep.Period, &rep.PoliciesSold,
		&rep.TotalPremium, &rep.CommissionEarned)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
