package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
)

// =============================================================================
// LOAN STORE (versioned)
// =============================================================================

const loanColumns = `id, holder_id, principal, interest_rate, remaining_balance, accrued_interest,
	status, last_interest_date, created_at, updated_at, version`

func (r *repo) CreateLoan(ctx context.Context, l *loan.Loan) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, string(l.HolderID), l.Principal, l.InterestRate, l.RemainingBalance, l.AccruedInterest,
		string(l.Status), dateArg(l.LastInterestDate), dateArg(l.CreatedAt), dateArg(l.UpdatedAt), l.Version,
	)
	return wrapInsert(err, "loan")
}

// UpdateLoan writes l if the stored version is still l.Version.
func (r *repo) UpdateLoan(ctx context.Context, l *loan.Loan) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE loans SET
			remaining_balance = ?, accrued_interest = ?, status = ?,
			last_interest_date = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		l.RemainingBalance, l.AccruedInterest, string(l.Status),
		dateArg(l.LastInterestDate), dateArg(l.UpdatedAt),
		l.ID, l.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	if err := r.casResult(ctx, res, "loans", "id", "loan", l.ID); err != nil {
		return err
	}
	l.Version++
	return nil
}

func (r *repo) Loan(ctx context.Context, id string) (*loan.Loan, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
	l, err := scanLoan(row)
	if err := one(err, "loan", id); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repo) LoansByHolder(ctx context.Context, holderID generic.HolderID) ([]*loan.Loan, error) {
	return queryRows(ctx, r.q, `SELECT `+loanColumns+` FROM loans WHERE holder_id = ? ORDER BY rowid`,
		[]any{string(holderID)},
		func(rows *sql.Rows) (*loan.Loan, error) { return scanLoan(rows) })
}

// ActiveLoanIDs lists loans still accruing interest.
func (r *repo) ActiveLoanIDs(ctx context.Context) ([]string, error) {
	return queryRows(ctx, r.q, `SELECT id FROM loans WHERE status = ? ORDER BY rowid`,
		[]any{string(loan.StatusActive)},
		func(rows *sql.Rows) (string, error) {
			var id string
			err := rows.Scan(&id)
			return id, err
		})
}

func scanLoan(s scanner) (*loan.Loan, error) {
	var (
		l                loan.Loan
		holderID, status string
	)
	err := s.Scan(&l.ID, &holderID, &l.Principal, &l.InterestRate, &l.RemainingBalance, &l.AccruedInterest,
		&status, dateCol{&l.LastInterestDate}, dateCol{&l.CreatedAt}, dateCol{&l.UpdatedAt}, &l.Version)
	if err != nil {
		return nil, err
	}
	l.HolderID = generic.HolderID(holderID)
	l.Status = loan.Status(status)
	return &l, nil
}

// =============================================================================
// REPAYMENT STORE
// =============================================================================

const repaymentColumns = `id, loan_id, holder_id, amount, repayment_type, interest_paid, principal_paid,
	unapplied, remaining_loan_balance, repaid_on`

func (r *repo) SaveRepayment(ctx context.Context, p *loan.Repayment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO loan_repayments (`+repaymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LoanID, string(p.HolderID), p.Amount, string(p.Type), p.InterestPaid, p.PrincipalPaid,
		p.Unapplied, p.RemainingLoanBalance, dateArg(p.RepaidOn),
	)
	return wrapInsert(err, "loan repayment")
}

func (r *repo) Repayments(ctx context.Context, loanID string) ([]*loan.Repayment, error) {
	return queryRows(ctx, r.q, `SELECT `+repaymentColumns+` FROM loan_repayments
		WHERE loan_id = ? ORDER BY repaid_on, rowid`, []any{loanID},
		func(rows *sql.Rows) (*loan.Repayment, error) {
			var (
				p             loan.Repayment
				holderID, typ string
			)
			err := rows.Scan(&p.ID, &p.LoanID, &holderID, &p.Amount, &typ, &p.InterestPaid, &p.PrincipalPaid,
				&p.Unapplied, &p.RemainingLoanBalance, dateCol{&p.RepaidOn})
			p.HolderID = generic.HolderID(holderID)
			p.Type = loan.RepaymentType(typ)
			return &p, err
		})
}
