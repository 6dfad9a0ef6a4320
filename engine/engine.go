/*
Package engine exposes the policy administration operations.

PURPOSE:
  Each operation loads the records it needs, runs the domain calculation
  (premium, valuation, bonus, loan, claims, underwriting) and persists the
  result inside one Store transaction.

UNIT OF WORK:
  1. Premium-ledger mutations hold a per-holder lock
  2. Store.WithTx runs the read-modify-write; ledger and loan rows are
     written with a version compare-and-swap (ErrConcurrencyConflict)
  3. Events recorded during the transaction are published only after commit
  4. Handlers react to events in their own transactions and may return
     follow-up events; they never save back into the record that triggered
     them

POST-COMMIT HANDLERS:
  policy.issued        -> agent sale count, backdated bonus catch-up
  premium.paid         -> agent premium total and commission
  underwriting.scored  -> holder risk category sync (system scores only)

TIME:
  Every time-sensitive operation takes an explicit as-of date. Nothing in
  this package reads the wall clock.
*/
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/ratetable"
	"github.com/warp/policy-engine/valuation"
)

type Engine struct {
	store  Store
	rates  *ratetable.Cached
	events *generic.Dispatcher
	locks  *keyedMutex
	logger *slog.Logger
}

// New wires an engine over a store. Rate lookups are cached for rateTTL
// (ratetable.DefaultCacheTTL when zero).
func New(store Store, rateTTL time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:  store,
		rates:  ratetable.NewCached(store, rateTTL),
		events: generic.NewDispatcher(logger),
		locks:  newKeyedMutex(),
		logger: logger,
	}
	e.events.Subscribe(generic.EventUnderwritingScored, e.syncRiskCategory)
	e.events.Subscribe(generic.EventPolicyIssued, e.recordAgentSale)
	e.events.Subscribe(generic.EventPolicyIssued, e.catchUpBonuses)
	e.events.Subscribe(generic.EventPremiumPaid, e.recordCommission)
	return e
}

// Events exposes the dispatcher so callers can subscribe extra handlers.
func (e *Engine) Events() *generic.Dispatcher { return e.events }

func (e *Engine) Store() Store { return e.store }

func (e *Engine) Rates() ratetable.Source { return e.rates }

// ratesIn reads rate tables through the transaction on a cache miss.
func (e *Engine) ratesIn(tx Repos) ratetable.Source { return e.rates.With(tx) }

// run executes fn in a transaction, optionally under the holder's lock, and
// publishes collected events once the transaction has committed.
func (e *Engine) run(ctx context.Context, lockHolder generic.HolderID, fn func(tx Repos, c *generic.Collector) error) error {
	var c generic.Collector
	err := func() error {
		if lockHolder != "" {
			unlock := e.locks.Lock(string(lockHolder))
			defer unlock()
		}
		return e.store.WithTx(ctx, func(tx Repos) error {
			return fn(tx, &c)
		})
	}()
	if err != nil {
		c.ClearEvents()
		return err
	}
	e.publish(ctx, c.ClearEvents())
	return nil
}

// publish never fails the committed operation; handler errors are logged by
// the dispatcher.
func (e *Engine) publish(ctx context.Context, events []generic.Event) {
	if len(events) == 0 {
		return
	}
	if err := e.events.Publish(ctx, events...); err != nil {
		e.logger.Warn("post-commit handlers reported errors", "events", len(events), "error", err)
	}
}

// valuer binds the valuation engine to r's rate tables and entry ledger.
func (e *Engine) valuer(r Repos) *valuation.Engine {
	return valuation.New(e.ratesIn(r), generic.NewLedger(r), e.logger)
}

func newID() string { return uuid.NewString() }
