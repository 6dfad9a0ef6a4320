package sqlite

import (
	"context"
	"fmt"

	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/premium"
)

// =============================================================================
// PREMIUM LEDGER STORE (versioned)
// =============================================================================

const premiumLedgerColumns = `holder_id, product_code, policy_type, payment_interval, start_date,
	annual_premium, interval_premium, total_premium, total_paid, remaining_premium, fine_due, fine_paid,
	due_index, next_due_date, fine_assessed_for, payment_count, gsv, ssv, status, version, updated_at`

// CreatePremiumLedger inserts the ledger opened at issuance.
func (r *repo) CreatePremiumLedger(ctx context.Context, l *premium.Ledger) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO premium_ledgers (`+premiumLedgerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(l.HolderID), l.ProductCode, string(l.PolicyType), string(l.Interval), dateArg(l.StartDate),
		l.AnnualPremium, l.IntervalPremium, l.TotalPremium, l.TotalPaid, l.RemainingPremium, l.FineDue, l.FinePaid,
		l.DueIndex, dateArg(l.NextDueDate), dateArg(l.FineAssessedFor), l.PaymentCount, l.GSV, l.SSV,
		string(l.Status), l.Version, dateArg(l.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.Invalid("holder_id", "premium ledger already exists for %s", l.HolderID)
		}
		return fmt.Errorf("failed to create premium ledger: %w", err)
	}
	return nil
}

// UpdatePremiumLedger writes l if the stored version is still l.Version.
func (r *repo) UpdatePremiumLedger(ctx context.Context, l *premium.Ledger) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE premium_ledgers SET
			annual_premium = ?, interval_premium = ?, total_premium = ?, total_paid = ?,
			remaining_premium = ?, fine_due = ?, fine_paid = ?, due_index = ?, next_due_date = ?,
			fine_assessed_for = ?, payment_count = ?, gsv = ?, ssv = ?, status = ?,
			version = version + 1, updated_at = ?
		WHERE holder_id = ? AND version = ?`,
		l.AnnualPremium, l.IntervalPremium, l.TotalPremium, l.TotalPaid,
		l.RemainingPremium, l.FineDue, l.FinePaid, l.DueIndex, dateArg(l.NextDueDate),
		dateArg(l.FineAssessedFor), l.PaymentCount, l.GSV, l.SSV, string(l.Status),
		dateArg(l.UpdatedAt),
		string(l.HolderID), l.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update premium ledger: %w", err)
	}
	if err := r.casResult(ctx, res, "premium_ledgers", "holder_id", "premium ledger", string(l.HolderID)); err != nil {
		return err
	}
	l.Version++
	return nil
}

func (r *repo) PremiumLedger(ctx context.Context, holderID generic.HolderID) (*premium.Ledger, error) {
	var (
		l                                premium.Ledger
		id, policyType, interval, status string
	)
	err := r.q.QueryRowContext(ctx, `SELECT `+premiumLedgerColumns+` FROM premium_ledgers WHERE holder_id = ?`,
		string(holderID)).Scan(
		&id, &l.ProductCode, &policyType, &interval, dateCol{&l.StartDate},
		&l.AnnualPremium, &l.IntervalPremium, &l.TotalPremium, &l.TotalPaid, &l.RemainingPremium, &l.FineDue, &l.FinePaid,
		&l.DueIndex, dateCol{&l.NextDueDate}, dateCol{&l.FineAssessedFor}, &l.PaymentCount, &l.GSV, &l.SSV,
		&status, &l.Version, dateCol{&l.UpdatedAt},
	)
	if err := one(err, "premium ledger", string(holderID)); err != nil {
		return nil, err
	}
	l.HolderID = generic.HolderID(id)
	l.PolicyType = policy.Type(policyType)
	l.Interval = policy.Interval(interval)
	l.Status = premium.Status(status)
	return &l, nil
}
