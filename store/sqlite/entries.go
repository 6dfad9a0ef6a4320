package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/warp/policy-engine/generic"
)

// =============================================================================
// ENTRY STORE (generic.Store interface)
// =============================================================================

const entryColumns = `id, holder_id, account, entry_type, effective_at, amount,
	reference_id, reason, idempotency_key, metadata_json, created_by, created_at`

// Append adds an entry to the ledger.
func (r *repo) Append(ctx context.Context, e generic.Entry) error {
	return r.appendEntry(ctx, e)
}

func (r *repo) appendEntry(ctx context.Context, e generic.Entry) error {
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	var metadataJSON sql.NullString
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode entry metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = e.EffectiveAt
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID),
		string(e.HolderID),
		string(e.Account),
		string(e.Type),
		e.EffectiveAt.String(),
		e.Amount,
		nullString(e.ReferenceID),
		nullString(e.Reason),
		nullString(e.IdempotencyKey),
		metadataJSON,
		nullString(e.CreatedBy),
		dateArg(createdAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// AppendBatch adds multiple entries atomically. Called on the outer Store it
// opens its own transaction; inside WithTx it joins the caller's.
func (r *repo) AppendBatch(ctx context.Context, es []generic.Entry) error {
	seen := make(map[string]bool, len(es))
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if seen[e.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[e.IdempotencyKey] = true
	}

	db, ok := r.q.(*sql.DB)
	if !ok {
		for _, e := range es {
			if err := r.appendEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txRepo := &repo{q: sqlTx}
	for _, e := range es {
		if err := txRepo.appendEntry(ctx, e); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

// Load returns all entries for holder+account in effective order.
func (r *repo) Load(ctx context.Context, holderID generic.HolderID, account generic.Account) ([]generic.Entry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE holder_id = ? AND account = ?
		ORDER BY effective_at ASC, rowid ASC`,
		string(holderID), string(account))
}

// LoadRange returns entries effective in [from, to].
func (r *repo) LoadRange(ctx context.Context, holderID generic.HolderID, account generic.Account, from, to generic.Date) ([]generic.Entry, error) {
	return r.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE holder_id = ? AND account = ?
		  AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at ASC, rowid ASC`,
		string(holderID), string(account), from.String(), to.String())
}

// Exists checks if an idempotency key exists.
func (r *repo) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

func (r *repo) queryEntries(ctx context.Context, query string, args ...any) ([]generic.Entry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (generic.Entry, error) {
	var (
		e              generic.Entry
		id, holderID   string
		account, typ   string
		referenceID    sql.NullString
		reason         sql.NullString
		idempotencyKey sql.NullString
		metadataJSON   sql.NullString
		createdBy      sql.NullString
	)

	err := rows.Scan(
		&id, &holderID, &account, &typ, dateCol{&e.EffectiveAt}, &e.Amount,
		&referenceID, &reason, &idempotencyKey, &metadataJSON, &createdBy, dateCol{&e.CreatedAt},
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.ID = generic.EntryID(id)
	e.HolderID = generic.HolderID(holderID)
	e.Account = generic.Account(account)
	e.Type = generic.EntryType(typ)
	e.ReferenceID = referenceID.String
	e.Reason = reason.String
	e.IdempotencyKey = idempotencyKey.String
	e.CreatedBy = createdBy.String

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &e.Metadata); err != nil {
			return e, fmt.Errorf("failed to decode entry metadata: %w", err)
		}
	}
	return e, nil
}
