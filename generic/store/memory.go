// Package store provides in-memory Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/policy-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory entry store (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	entries     map[key][]generic.Entry
	idempotency map[string]bool
}

type key struct {
	HolderID generic.HolderID
	Account  generic.Account
}

func NewMemory() *Memory {
	return &Memory{
		entries:     make(map[key][]generic.Entry),
		idempotency: make(map[string]bool),
	}
}

// Append adds a single entry. Append-only.
func (m *Memory) Append(_ context.Context, e generic.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(e)
}

// AppendBatch adds multiple entries atomically.
func (m *Memory) AppendBatch(_ context.Context, es []generic.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendBatchLocked(es)
}

func (m *Memory) appendBatchLocked(es []generic.Entry) error {
	// Check all idempotency keys first so a rejected batch writes nothing
	seen := make(map[string]bool, len(es))
	for _, e := range es {
		if e.IdempotencyKey == "" {
			continue
		}
		if m.idempotency[e.IdempotencyKey] || seen[e.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		seen[e.IdempotencyKey] = true
	}
	for _, e := range es {
		if err := m.appendLocked(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) appendLocked(e generic.Entry) error {
	if e.IdempotencyKey != "" && m.idempotency[e.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}

	k := key{HolderID: e.HolderID, Account: e.Account}
	es := m.entries[k]

	// Insert after every entry with the same or earlier day to keep order stable
	i := sort.Search(len(es), func(i int) bool {
		return es[i].EffectiveAt.After(e.EffectiveAt)
	})
	es = append(es, generic.Entry{})
	copy(es[i+1:], es[i:])
	es[i] = e
	m.entries[k] = es

	if e.IdempotencyKey != "" {
		m.idempotency[e.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) Load(_ context.Context, holderID generic.HolderID, account generic.Account) ([]generic.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(holderID, account), nil
}

func (m *Memory) loadLocked(holderID generic.HolderID, account generic.Account) []generic.Entry {
	src := m.entries[key{HolderID: holderID, Account: account}]
	result := make([]generic.Entry, len(src))
	copy(result, src)
	return result
}

func (m *Memory) LoadRange(_ context.Context, holderID generic.HolderID, account generic.Account, from, to generic.Date) ([]generic.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadRangeLocked(holderID, account, from, to), nil
}

func (m *Memory) loadRangeLocked(holderID generic.HolderID, account generic.Account, from, to generic.Date) []generic.Entry {
	var result []generic.Entry
	for _, e := range m.entries[key{HolderID: holderID, Account: account}] {
		if from.BeforeOrEqual(e.EffectiveAt) && e.EffectiveAt.BeforeOrEqual(to) {
			result = append(result, e)
		}
	}
	return result
}

func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm.Memory}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	entries := make(map[key][]generic.Entry, len(tm.entries))
	for k, v := range tm.entries {
		entries[k] = append([]generic.Entry{}, v...)
	}
	idemp := make(map[string]bool, len(tm.idempotency))
	for k, v := range tm.idempotency {
		idemp[k] = v
	}
	return memorySnapshot{entries: entries, idempotency: idemp}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.entries = s.entries
	tm.idempotency = s.idempotency
}

type memorySnapshot struct {
	entries     map[key][]generic.Entry
	idempotency map[string]bool
}

// txMemoryView operates on the parent while its lock is held by WithTx.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) Append(_ context.Context, e generic.Entry) error {
	return tv.parent.appendLocked(e)
}

func (tv *txMemoryView) AppendBatch(_ context.Context, es []generic.Entry) error {
	return tv.parent.appendBatchLocked(es)
}

func (tv *txMemoryView) Load(_ context.Context, holderID generic.HolderID, account generic.Account) ([]generic.Entry, error) {
	return tv.parent.loadLocked(holderID, account), nil
}

func (tv *txMemoryView) LoadRange(_ context.Context, holderID generic.HolderID, account generic.Account, from, to generic.Date) ([]generic.Entry, error) {
	return tv.parent.loadRangeLocked(holderID, account, from, to), nil
}

func (tv *txMemoryView) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	return tv.parent.idempotency[idempotencyKey], nil
}
