package generic_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/generic/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newLedger() generic.Ledger {
	return generic.NewLedger(store.NewMemory())
}

func bonusEntry(holder string, at generic.Date, amount int64, key string) generic.Entry {
	return generic.Entry{
		ID:             generic.EntryID(key),
		HolderID:       generic.HolderID(holder),
		Account:        generic.AccountBonus,
		Type:           generic.EntryBonusCredit,
		EffectiveAt:    at,
		Amount:         decimal.NewFromInt(amount),
		IdempotencyKey: key,
	}
}

// =============================================================================
// LEDGER
// =============================================================================

func TestLedger_Idempotency_DuplicateKeyRejected(t *testing.T) {
	// GIVEN: A bonus credit with key "bonus:ph-1:1"
	// WHEN: The anniversary sweep appends the same key again
	// THEN: Second append fails with ErrDuplicateIdempotencyKey

	ctx := context.Background()
	ledger := newLedger()
	e := bonusEntry("ph-1", generic.NewDate(2025, time.April, 1), 20000, "bonus:ph-1:1")

	if err := ledger.Append(ctx, e); err != nil {
		t.Fatalf("first append should succeed: %v", err)
	}
	if err := ledger.Append(ctx, e); !errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
		t.Errorf("expected ErrDuplicateIdempotencyKey, got: %v", err)
	}

	has, err := ledger.Has(ctx, "bonus:ph-1:1")
	if err != nil || !has {
		t.Errorf("Has should report the key, got %v, %v", has, err)
	}
}

func TestLedger_AtomicBatch_AllOrNothing(t *testing.T) {
	// GIVEN: A batch of 3 entries where the 3rd repeats an existing key
	// WHEN: AppendBatch is called
	// THEN: Nothing from the batch is written

	ctx := context.Background()
	ledger := newLedger()
	_ = ledger.Append(ctx, bonusEntry("ph-1", generic.NewDate(2022, time.January, 1), 100, "existing"))

	batch := []generic.Entry{
		bonusEntry("ph-1", generic.NewDate(2023, time.January, 1), 1, "y2"),
		bonusEntry("ph-1", generic.NewDate(2024, time.January, 1), 1, "y3"),
		bonusEntry("ph-1", generic.NewDate(2025, time.January, 1), 1, "existing"),
	}
	if err := ledger.AppendBatch(ctx, batch); err == nil {
		t.Error("batch with duplicate key should fail")
	}

	es, _ := ledger.Entries(ctx, "ph-1", generic.AccountBonus)
	if len(es) != 1 {
		t.Errorf("batch should be atomic: expected 1 entry, got %d", len(es))
	}
}

func TestLedger_Ordering_Chronological(t *testing.T) {
	// GIVEN: Entries appended out of order
	// WHEN: Reading entries
	// THEN: They are returned sorted by EffectiveAt

	ctx := context.Background()
	ledger := newLedger()
	_ = ledger.Append(ctx, bonusEntry("ph-1", generic.NewDate(2024, time.March, 1), 1, "mar"))
	_ = ledger.Append(ctx, bonusEntry("ph-1", generic.NewDate(2024, time.January, 1), 1, "jan"))
	_ = ledger.Append(ctx, bonusEntry("ph-1", generic.NewDate(2024, time.February, 1), 1, "feb"))

	es, _ := ledger.Entries(ctx, "ph-1", generic.AccountBonus)
	if len(es) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(es))
	}
	for i, want := range []time.Month{time.January, time.February, time.March} {
		if es[i].EffectiveAt.Month() != want {
			t.Errorf("entry %d: expected %s, got %s", i, want, es[i].EffectiveAt.Month())
		}
	}
}

func TestLedger_TotalAndRange(t *testing.T) {
	// GIVEN: Three yearly bonus credits of 20000
	// WHEN: Summing as of the second anniversary
	// THEN: Only the first two count; the range read agrees

	ctx := context.Background()
	ledger := newLedger()
	for i, y := range []int{2022, 2023, 2024} {
		_ = ledger.Append(ctx, bonusEntry("ph-1", generic.NewDate(y, time.April, 1), 20000, "bonus:ph-1:"+strconv.Itoa(i+1)))
	}
	// Another holder never leaks into the sum
	_ = ledger.Append(ctx, bonusEntry("ph-2", generic.NewDate(2022, time.April, 1), 999, "bonus:ph-2:1"))

	total, err := ledger.Total(ctx, "ph-1", generic.AccountBonus, generic.NewDate(2023, time.April, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !total.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("expected 40000, got %s", total)
	}

	es, _ := ledger.EntriesInRange(ctx, "ph-1", generic.AccountBonus,
		generic.NewDate(2023, time.January, 1), generic.NewDate(2024, time.December, 31))
	if len(es) != 2 {
		t.Errorf("expected 2 entries in range, got %d", len(es))
	}
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	// GIVEN: A transactional memory store
	// WHEN: The transaction function fails after appending
	// THEN: The append and its idempotency key are rolled back

	ctx := context.Background()
	mem := store.NewTxMemory()
	boom := errors.New("boom")

	err := mem.WithTx(ctx, func(s generic.Store) error {
		if err := generic.NewLedger(s).Append(ctx, bonusEntry("ph-1", generic.NewDate(2024, time.April, 1), 1, "k1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if es, _ := mem.Load(ctx, "ph-1", generic.AccountBonus); len(es) != 0 {
		t.Errorf("rolled back transaction left %d entries", len(es))
	}
	if has, _ := mem.Exists(ctx, "k1"); has {
		t.Error("rolled back transaction left its idempotency key")
	}

	err = mem.WithTx(ctx, func(s generic.Store) error {
		return generic.NewLedger(s).Append(ctx, bonusEntry("ph-1", generic.NewDate(2024, time.April, 1), 1, "k1"))
	})
	if err != nil {
		t.Fatalf("commit should succeed: %v", err)
	}
	if es, _ := mem.Load(ctx, "ph-1", generic.AccountBonus); len(es) != 1 {
		t.Errorf("expected 1 committed entry, got %d", len(es))
	}
}
