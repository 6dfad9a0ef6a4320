package generic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DOMAIN EVENTS - Post-commit notifications between components
// =============================================================================

// EventType names what happened.
type EventType string

const (
	EventPolicyIssued       EventType = "policy.issued"
	EventPolicyTransitioned EventType = "policy.transitioned"
	EventPremiumPaid        EventType = "premium.paid"
	EventBonusAccrued       EventType = "bonus.accrued"
	EventUnderwritingScored EventType = "underwriting.scored"
	EventLoanCreated        EventType = "loan.created"
	EventLoanRepaid         EventType = "loan.repaid"
	EventClaimDecided       EventType = "claim.decided"
)

// Event is an immutable record of a committed state change. Payload carries
// the component-specific data (a premium split, a new risk category).
type Event struct {
	ID          uuid.UUID
	Type        EventType
	HolderID    HolderID
	AggregateID string
	AsOf        Date
	OccurredAt  time.Time
	Payload     any
}

func NewEvent(t EventType, holderID HolderID, aggregateID string, asOf Date, payload any) Event {
	return Event{
		ID:          uuid.New(),
		Type:        t,
		HolderID:    holderID,
		AggregateID: aggregateID,
		AsOf:        asOf,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// Collector accumulates events inside a transaction. They are handed to the
// Dispatcher only after the transaction commits.
type Collector struct {
	events []Event
}

func (c *Collector) Record(e Event) {
	c.events = append(c.events, e)
}

func (c *Collector) Events() []Event {
	return c.events
}

// ClearEvents returns the collected events and empties the collector.
func (c *Collector) ClearEvents() []Event {
	out := c.events
	c.events = nil
	return out
}

// =============================================================================
// DISPATCHER - Ordered in-process queue
// =============================================================================

// Handler reacts to an event. It may return follow-up events; they are
// appended to the queue being drained, never dispatched by nested calls.
type Handler func(ctx context.Context, e Event) ([]Event, error)

// MaxEventsPerPublish bounds a single drain so a handler cycle cannot spin forever.
const MaxEventsPerPublish = 1000

type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[EventType][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler. Handlers for a type run in registration order.
func (d *Dispatcher) Subscribe(t EventType, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = append(d.handlers[t], h)
}

// Publish drains events FIFO. A failing handler is logged and does not stop
// the remaining handlers or events; all failures are returned joined.
func (d *Dispatcher) Publish(ctx context.Context, events ...Event) error {
	queue := append([]Event(nil), events...)
	var errs []error

	for processed := 0; len(queue) > 0; processed++ {
		if processed >= MaxEventsPerPublish {
			errs = append(errs, &ComputationError{
				Formula: "event dispatch",
				Err:     fmt.Errorf("more than %d events in one publish", MaxEventsPerPublish),
			})
			break
		}

		e := queue[0]
		queue = queue[1:]

		d.mu.RLock()
		hs := d.handlers[e.Type]
		d.mu.RUnlock()

		for _, h := range hs {
			follow, err := h(ctx, e)
			if err != nil {
				d.logger.Error("event handler failed",
					"event", string(e.Type),
					"holder_id", string(e.HolderID),
					"aggregate_id", e.AggregateID,
					"error", err)
				errs = append(errs, fmt.Errorf("%s: %w", e.Type, err))
				continue
			}
			queue = append(queue, follow...)
		}
	}
	return errors.Join(errs...)
}
