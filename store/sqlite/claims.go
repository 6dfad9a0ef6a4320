package sqlite

import (
	"context"
	"database/sql"

	"github.com/warp/policy-engine/claims"
	"github.com/warp/policy-engine/generic"
)

// =============================================================================
// CLAIM STORE
// =============================================================================

const claimColumns = `id, holder_id, reason, amount, status, claim_date, updated_at`

func (r *repo) SaveClaim(ctx context.Context, c *claims.Request) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO claim_requests (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reason = excluded.reason,
			amount = excluded.amount,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		c.ID, string(c.HolderID), nullString(c.Reason), c.Amount, string(c.Status),
		dateArg(c.ClaimDate), dateArg(c.UpdatedAt),
	)
	return wrapInsert(err, "claim")
}

func (r *repo) Claim(ctx context.Context, id string) (*claims.Request, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claim_requests WHERE id = ?`, id)
	c, err := scanClaim(row)
	if err := one(err, "claim", id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) ClaimsByHolder(ctx context.Context, holderID generic.HolderID) ([]*claims.Request, error) {
	return queryRows(ctx, r.q, `SELECT `+claimColumns+` FROM claim_requests WHERE holder_id = ? ORDER BY rowid`,
		[]any{string(holderID)},
		func(rows *sql.Rows) (*claims.Request, error) { return scanClaim(rows) })
}

func scanClaim(s scanner) (*claims.Request, error) {
	var (
		c                claims.Request
		holderID, status string
		reason           sql.NullString
	)
	err := s.Scan(&c.ID, &holderID, &reason, &c.Amount, &status, dateCol{&c.ClaimDate}, dateCol{&c.UpdatedAt})
	if err != nil {
		return nil, err
	}
	c.HolderID = generic.HolderID(holderID)
	c.Reason = reason.String
	c.Status = claims.RequestStatus(status)
	return &c, nil
}

// Processing

func (r *repo) SaveClaimProcessing(ctx context.Context, p *claims.Processing) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO claim_processing (id, claim_id, status, remarks, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			remarks = excluded.remarks,
			processed_at = excluded.processed_at`,
		p.ID, p.ClaimID, string(p.Status), nullString(p.Remarks), dateArg(p.ProcessedAt),
	)
	return wrapInsert(err, "claim processing")
}

func (r *repo) ClaimProcessing(ctx context.Context, claimID string) (*claims.Processing, error) {
	var (
		p       claims.Processing
		status  string
		remarks sql.NullString
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, claim_id, status, remarks, processed_at
		FROM claim_processing WHERE claim_id = ?`, claimID).
		Scan(&p.ID, &p.ClaimID, &status, &remarks, dateCol{&p.ProcessedAt})
	if err := one(err, "claim processing", claimID); err != nil {
		return nil, err
	}
	p.Status = claims.ProcessingStatus(status)
	p.Remarks = remarks.String
	return &p, nil
}

// Payments

func (r *repo) SaveClaimPayment(ctx context.Context, p *claims.Payment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO claim_payments (id, claim_id, holder_id, status, amount_paid, reference, paid_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClaimID, string(p.HolderID), string(p.Status), p.AmountPaid, p.Reference, dateArg(p.PaidOn),
	)
	if isUniqueConstraintError(err) {
		return generic.Invalid("claim_id", "claim %s has already been paid", p.ClaimID)
	}
	return wrapInsert(err, "claim payment")
}

func (r *repo) ClaimPayment(ctx context.Context, claimID string) (*claims.Payment, error) {
	var (
		p                claims.Payment
		holderID, status string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, claim_id, holder_id, status, amount_paid, reference, paid_on
		FROM claim_payments WHERE claim_id = ?`, claimID).
		Scan(&p.ID, &p.ClaimID, &holderID, &status, &p.AmountPaid, &p.Reference, dateCol{&p.PaidOn})
	if err := one(err, "claim payment", claimID); err != nil {
		return nil, err
	}
	p.HolderID = generic.HolderID(holderID)
	p.Status = claims.PaymentStatus(status)
	return &p, nil
}
