package generic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/generic"
)

func TestDate_AddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from   generic.Date
		months int
		want   string
	}{
		{generic.NewDate(2024, time.January, 31), 1, "2024-02-29"},
		{generic.NewDate(2023, time.January, 31), 1, "2023-02-28"},
		{generic.NewDate(2024, time.March, 31), -1, "2024-02-29"},
		{generic.NewDate(2024, time.November, 15), 3, "2025-02-15"},
		{generic.NewDate(2024, time.February, 29), 12, "2025-02-28"},
	}
	for _, tt := range tests {
		if got := tt.from.AddMonths(tt.months).String(); got != tt.want {
			t.Errorf("%s + %d months: expected %s, got %s", tt.from, tt.months, tt.want, got)
		}
	}
}

func TestAgeAndCompletedYears(t *testing.T) {
	birth := generic.NewDate(1984, time.June, 15)
	if got := generic.AgeAt(birth, generic.NewDate(2024, time.June, 14)); got != 39 {
		t.Errorf("day before birthday: expected 39, got %d", got)
	}
	if got := generic.AgeAt(birth, generic.NewDate(2024, time.June, 15)); got != 40 {
		t.Errorf("on birthday: expected 40, got %d", got)
	}

	// 365-day years: the leap day pushes the third anniversary one day later
	start := generic.NewDate(2021, time.January, 1)
	if got := generic.CompletedYears(start, generic.NewDate(2024, time.January, 1)); got != 3 {
		t.Errorf("expected 3 completed years, got %d", got)
	}
	if got := generic.CompletedYears(start, generic.NewDate(2020, time.January, 1)); got != 0 {
		t.Errorf("negative span should floor at 0, got %d", got)
	}
}

func TestPolicyYears(t *testing.T) {
	// GIVEN: A policy started 2022-03-15
	start := generic.NewDate(2022, time.March, 15)

	// THEN: Year 3 runs 2024-03-15 to 2025-03-14
	y3 := generic.PolicyYear(start, 3)
	if y3.String() != "[2024-03-15, 2025-03-14]" {
		t.Errorf("unexpected year 3: %s", y3)
	}
	if !y3.Contains(generic.NewDate(2025, time.March, 14)) || y3.Contains(generic.NewDate(2025, time.March, 15)) {
		t.Error("year 3 bounds are wrong")
	}

	if got := generic.PolicyYearFor(start, generic.NewDate(2024, time.March, 14)); got != 2 {
		t.Errorf("expected policy year 2, got %d", got)
	}
	if got := generic.PolicyYearFor(start, generic.NewDate(2022, time.March, 1)); got != 0 {
		t.Errorf("before start: expected 0, got %d", got)
	}
	if got := generic.CompletedPolicyYears(start, generic.NewDate(2024, time.March, 15)); got != 2 {
		t.Errorf("expected 2 anniversaries, got %d", got)
	}
}

func TestMoney(t *testing.T) {
	if got := generic.RoundMoney(decimal.RequireFromString("243.665")); got.StringFixed(2) != "243.67" {
		t.Errorf("half rounds away from zero: got %s", got)
	}
	if got := generic.Percent(decimal.NewFromInt(750), decimal.NewFromInt(2)); !got.Equal(decimal.NewFromInt(15)) {
		t.Errorf("2%% of 750: got %s", got)
	}
	if got := generic.MaxZero(decimal.NewFromInt(-5)); !got.IsZero() {
		t.Errorf("MaxZero(-5): got %s", got)
	}
}

func TestErrors_Classification(t *testing.T) {
	err := generic.Invalid("amount", "must be positive")
	var ve *generic.ValidationError
	if !errors.As(err, &ve) || ve.Field != "amount" {
		t.Fatalf("expected ValidationError on amount, got %v", err)
	}
	if !generic.IsClientError(err) {
		t.Error("validation should be a client error")
	}
	if !generic.IsRetryable(generic.ErrConcurrencyConflict) {
		t.Error("concurrency conflicts are retryable")
	}
	if !generic.IsNotFound(&generic.NotFoundError{Kind: "holder", ID: "x"}) {
		t.Error("NotFoundError should match ErrNotFound")
	}
}

// =============================================================================
// DISPATCHER
// =============================================================================

func TestDispatcher_FollowUpsQueuedAndFailuresIsolated(t *testing.T) {
	// GIVEN: A premium handler that emits a follow-up and one that fails
	// WHEN: A premium event is published
	// THEN: Every handler still runs, in FIFO order, and the failure is returned

	ctx := context.Background()
	d := generic.NewDispatcher(nil)
	var order []string

	d.Subscribe(generic.EventPremiumPaid, func(_ context.Context, e generic.Event) ([]generic.Event, error) {
		order = append(order, "premium-1")
		return []generic.Event{generic.NewEvent(generic.EventBonusAccrued, e.HolderID, "b1", e.AsOf, nil)}, nil
	})
	d.Subscribe(generic.EventPremiumPaid, func(_ context.Context, e generic.Event) ([]generic.Event, error) {
		order = append(order, "premium-2")
		return nil, errors.New("agent store down")
	})
	d.Subscribe(generic.EventBonusAccrued, func(_ context.Context, e generic.Event) ([]generic.Event, error) {
		order = append(order, "bonus")
		return nil, nil
	})

	err := d.Publish(ctx, generic.NewEvent(generic.EventPremiumPaid, "ph-1", "p1", generic.NewDate(2024, time.April, 1), nil))
	if err == nil {
		t.Error("expected the failing handler's error")
	}
	want := []string{"premium-1", "premium-2", "bonus"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("expected %v, got %v", want, order)
			break
		}
	}
}

func TestDispatcher_BoundsRunawayCycles(t *testing.T) {
	d := generic.NewDispatcher(nil)
	d.Subscribe(generic.EventLoanRepaid, func(_ context.Context, e generic.Event) ([]generic.Event, error) {
		return []generic.Event{e}, nil
	})

	err := d.Publish(context.Background(), generic.NewEvent(generic.EventLoanRepaid, "ph-1", "l1", generic.Today(), nil))
	if !errors.Is(err, generic.ErrComputation) {
		t.Errorf("expected ErrComputation for a handler cycle, got %v", err)
	}
}
