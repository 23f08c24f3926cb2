package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ricorrenze/internal/core"
	"ricorrenze/internal/storage/memory"
)

func weeklyExpense(t *testing.T, id string) core.ScheduledTransaction {
	t.Helper()
	p, err := core.NewInfinitePattern(core.NewDate(2024, 1, 1), core.Frequency{Count: 1, Unit: core.Week})
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	return core.ScheduledTransaction{
		ID:           id,
		Name:         "Groceries",
		CategoryID:   "food",
		Operation:    core.Expense,
		Amount:       core.Money{Cents: 1000},
		OriginSplits: []core.Split{{AccountID: "checking", Amount: core.Money{Cents: 1000}}},
		Recurrence:   p,
	}
}

func monthlyTransfer(t *testing.T, id string, limit int) core.ScheduledTransaction {
	t.Helper()
	p, err := core.NewNOccurrencesPattern(core.NewDate(2024, 1, 31), core.Frequency{Count: 1, Unit: core.Month}, limit)
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	return core.ScheduledTransaction{
		ID:                id,
		Name:              "Savings",
		CategoryID:        "transfers",
		Operation:         core.Transfer,
		Amount:            core.Money{Cents: 20000},
		OriginSplits:      []core.Split{{AccountID: "checking", Amount: core.Money{Cents: 20000}}},
		DestinationSplits: []core.Split{{AccountID: "savings", Amount: core.Money{Cents: 20000}}},
		Recurrence:        p,
	}
}

type fixture struct {
	store *memory.Store
	mods  *memory.ModificationRepository
	svc   *RecurrenceModificationsService
}

func newFixture(t *testing.T, templates ...core.ScheduledTransaction) *fixture {
	t.Helper()
	store := memory.New()
	for _, st := range templates {
		if err := store.Templates().Persist(context.Background(), st); err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}
	seq := 0
	var mu sync.Mutex
	svc := NewRecurrenceModificationsService(store.Templates(), store.Modifications()).
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("mod-%d", seq)
		})
	return &fixture{store: store, mods: store.Modifications(), svc: svc}
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []OccurrenceEvent
	err    error
}

func (p *fakePublisher) PublishOccurrenceEvent(_ context.Context, e OccurrenceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) Events() []OccurrenceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]OccurrenceEvent(nil), p.events...)
}
