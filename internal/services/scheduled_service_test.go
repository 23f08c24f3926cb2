package services

import (
	"context"
	"errors"
	"testing"

	"ricorrenze/internal/core"
	"ricorrenze/internal/storage/memory"
)

func newScheduledService(t *testing.T, pub OccurrenceEventPublisher) (*ScheduledTransactionService, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewScheduledTransactionService(store.Templates(), store.Modifications(), pub), store
}

func TestCreateTemplateAssignsID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newScheduledService(t, nil)

	st := weeklyExpense(t, "")
	created, err := svc.CreateTemplate(ctx, st)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	got, err := svc.GetTemplate(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Groceries" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestCreateTemplateRejectsInvalid(t *testing.T) {
	svc, store := newScheduledService(t, nil)
	st := weeklyExpense(t, "tpl-1")
	st.Name = ""
	if _, err := svc.CreateTemplate(context.Background(), st); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	all, _ := store.Templates().FindAll(context.Background())
	if len(all) != 0 {
		t.Errorf("templates = %d, want 0", len(all))
	}
}

func TestUpdateUnknownTemplate(t *testing.T) {
	svc, _ := newScheduledService(t, nil)
	_, err := svc.UpdateTemplate(context.Background(), weeklyExpense(t, "missing"))
	if !errors.Is(err, core.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestDeleteTemplateCascades(t *testing.T) {
	ctx := context.Background()
	svc, store := newScheduledService(t, nil)
	if _, err := svc.CreateTemplate(ctx, weeklyExpense(t, "tpl-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SkipOccurrence(ctx, "tpl-1", 0); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if err := svc.DeleteTemplate(ctx, "tpl-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := store.Modifications().Count(); n != 0 {
		t.Errorf("modifications left = %d, want 0", n)
	}
	if _, err := svc.GetTemplate(ctx, "tpl-1"); !errors.Is(err, core.ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound after delete, got %v", err)
	}
}

func TestOccurrenceOperationsPublishEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newScheduledService(t, pub)
	if _, err := svc.CreateTemplate(ctx, weeklyExpense(t, "tpl-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	paid := core.NewDate(2024, 1, 2)
	splits := []core.Split{{AccountID: "checking", Amount: core.Money{Cents: 1250}}}
	if _, err := svc.RecordOccurrence(ctx, "tpl-1", 0, paid, splits, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := svc.SkipOccurrence(ctx, "tpl-1", 1); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if _, err := svc.DeleteSingleOccurrence(ctx, "tpl-1", 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.ResetOccurrence(ctx, "tpl-1", 1); err != nil {
		t.Fatalf("reset: %v", err)
	}

	events := pub.Events()
	want := []OccurrenceEventType{EventOccurrenceRecorded, EventOccurrenceSkipped, EventOccurrenceDeleted, EventOccurrenceReset}
	if len(events) != len(want) {
		t.Fatalf("events = %d, want %d", len(events), len(want))
	}
	for i, typ := range want {
		if events[i].Type != typ {
			t.Errorf("[%d] type = %s, want %s", i, events[i].Type, typ)
		}
	}
	if !events[0].Date.Equal(paid) || events[0].OccurrenceIndex != 0 {
		t.Errorf("recorded event = %+v", events[0])
	}

	next, err := svc.NextPendingOccurrence(ctx, "tpl-1")
	if err != nil || next == nil {
		t.Fatalf("next pending: %v %v", next, err)
	}
	if next.OccurrenceIndex != 1 {
		t.Errorf("next pending index = %d, want 1", next.OccurrenceIndex)
	}
}

func TestResetOfPendingOccurrencePublishesNothing(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newScheduledService(t, pub)
	if _, err := svc.CreateTemplate(ctx, weeklyExpense(t, "tpl-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	changed, err := svc.ResetOccurrence(ctx, "tpl-1", 3)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if changed {
		t.Error("reset of a pending occurrence reported a change")
	}
	if events := pub.Events(); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newScheduledService(t, pub)
	if _, err := svc.CreateTemplate(ctx, weeklyExpense(t, "tpl-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SkipOccurrence(ctx, "tpl-1", 0); err != nil {
		t.Fatalf("skip should succeed even if publishing fails: %v", err)
	}
}

func TestServicePricePerMonth(t *testing.T) {
	ctx := context.Background()
	svc, _ := newScheduledService(t, nil)
	if _, err := svc.CreateTemplate(ctx, weeklyExpense(t, "tpl-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	classifier := core.AccountClassifierFunc(func(string) (core.AccountType, error) { return core.Asset, nil })
	got, err := svc.PricePerMonth(ctx, "tpl-1", classifier)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if got.Cents != -4348 {
		t.Errorf("price per month = %d, want -4348", got.Cents)
	}
}
