/*
ledger.go - Append-only entry log

PURPOSE:
  The Ledger is the immutable history of monetary events that other
  components sum: accrued bonuses (read by valuation and claims), premium
  payments, and loan repayments with their balance checkpoints.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, entries cannot be modified
  3. IDEMPOTENT: Same idempotency key = same entry (no duplicates)

EXAMPLE FLOW:
  1. Policy started 2021-04-01, sum assured 500000, 40 per thousand
  2. 2022-04-01 anniversary: bonus entry +20000 (key bonus:ph-1:1)
  3. Sweep re-runs on 2022-04-02: same key, ErrDuplicateIdempotencyKey, skipped
  4. Valuation sums the bonus account: 20000

SEE ALSO:
  - store.go: Low-level persistence interface
  - bonus/bonus.go: Writes bonus credits
*/
package generic

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - Append-only entry log
// =============================================================================

// Ledger is the source of truth for accrued monetary history.
type Ledger interface {
	// Append adds an entry. Fails if idempotency key exists.
	// This is the ONLY write operation.
	Append(ctx context.Context, e Entry) error

	// AppendBatch adds multiple entries atomically.
	AppendBatch(ctx context.Context, es []Entry) error

	// Entries returns all entries for holder+account, chronologically.
	Entries(ctx context.Context, holderID HolderID, account Account) ([]Entry, error)

	// EntriesInRange returns entries in [from, to].
	EntriesInRange(ctx context.Context, holderID HolderID, account Account, from, to Date) ([]Entry, error)

	// Total sums the account up to and including the given day.
	Total(ctx context.Context, holderID HolderID, account Account, at Date) (decimal.Decimal, error)

	// Has reports whether an idempotency key has been written.
	Has(ctx context.Context, idempotencyKey string) (bool, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, e Entry) error {
	if e.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, e)
}

func (l *DefaultLedger) AppendBatch(ctx context.Context, es []Entry) error {
	seen := make(map[string]bool, len(es))
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if seen[e.IdempotencyKey] {
			return ErrDuplicateIdempotencyKey
		}
		seen[e.IdempotencyKey] = true
		exists, err := l.Store.Exists(ctx, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.AppendBatch(ctx, es)
}

func (l *DefaultLedger) Entries(ctx context.Context, holderID HolderID, account Account) ([]Entry, error) {
	return l.Store.Load(ctx, holderID, account)
}

func (l *DefaultLedger) EntriesInRange(ctx context.Context, holderID HolderID, account Account, from, to Date) ([]Entry, error) {
	return l.Store.LoadRange(ctx, holderID, account, from, to)
}

func (l *DefaultLedger) Total(ctx context.Context, holderID HolderID, account Account, at Date) (decimal.Decimal, error) {
	es, err := l.Store.Load(ctx, holderID, account)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range es {
		if e.EffectiveAt.After(at) {
			break
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (l *DefaultLedger) Has(ctx context.Context, idempotencyKey string) (bool, error) {
	return l.Store.Exists(ctx, idempotencyKey)
}
