package services

import (
	"context"
	"errors"
	"testing"

	"ricorrenze/internal/core"
)

func TestEnumerateMergesModifications(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, weeklyExpense(t, "tpl-1"))
	if _, err := f.svc.MarkOccurrenceAsCompleted(ctx, "tpl-1", 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	moved := core.NewDate(2024, 1, 20)
	if _, err := f.svc.ModifyOccurrence(ctx, "tpl-1", 2, core.OccurrenceOverrides{Date: &moved}); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if _, err := f.svc.MarkOccurrenceAsDeleted(ctx, "tpl-1", 3); err != nil {
		t.Fatalf("delete: %v", err)
	}

	e := NewOccurrenceEnumerator(f.store.Templates(), f.mods)
	got, err := e.Enumerate(ctx, "tpl-1", core.NewDate(2024, 1, 31))
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("occurrences = %d, want 5", len(got))
	}

	want := []struct {
		date  core.Date
		state core.ModificationState
	}{
		{core.NewDate(2024, 1, 1), core.StateCompleted},
		{core.NewDate(2024, 1, 8), core.StatePending},
		{moved, core.StatePending},
		{core.NewDate(2024, 1, 22), core.StateDeleted},
		{core.NewDate(2024, 1, 29), core.StatePending},
	}
	for i, w := range want {
		if got[i].OccurrenceIndex != i {
			t.Errorf("[%d] index = %d", i, got[i].OccurrenceIndex)
		}
		if !got[i].Date.Equal(w.date) {
			t.Errorf("[%d] date = %s, want %s", i, got[i].Date, w.date)
		}
		if got[i].State != w.state {
			t.Errorf("[%d] state = %s, want %s", i, got[i].State, w.state)
		}
	}
	if !got[2].OriginalDate.Equal(core.NewDate(2024, 1, 15)) {
		t.Errorf("original date = %s, want 2024-01-15", got[2].OriginalDate)
	}
}

func TestEnumerateStopsAtSeriesEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monthlyTransfer(t, "tpl-2", 3))
	e := NewOccurrenceEnumerator(f.store.Templates(), f.mods)

	got, err := e.Enumerate(ctx, "tpl-2", core.NewDate(2030, 1, 1))
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	wantDates := []core.Date{core.NewDate(2024, 1, 31), core.NewDate(2024, 2, 29), core.NewDate(2024, 3, 31)}
	if len(got) != len(wantDates) {
		t.Fatalf("occurrences = %d, want %d", len(got), len(wantDates))
	}
	for i, d := range wantDates {
		if !got[i].Date.Equal(d) {
			t.Errorf("[%d] date = %s, want %s", i, got[i].Date, d)
		}
	}
}

func TestEnumerateBetween(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, weeklyExpense(t, "tpl-1"))
	e := NewOccurrenceEnumerator(f.store.Templates(), f.mods)

	got, err := e.EnumerateBetween(ctx, "tpl-1", core.NewDate(2024, 1, 10), core.NewDate(2024, 1, 29))
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("occurrences = %d, want 3", len(got))
	}
	if got[0].OccurrenceIndex != 2 || got[2].OccurrenceIndex != 4 {
		t.Errorf("indices = %d..%d, want 2..4", got[0].OccurrenceIndex, got[2].OccurrenceIndex)
	}

	if _, err := e.EnumerateBetween(ctx, "tpl-1", core.NewDate(2024, 2, 1), core.NewDate(2024, 1, 1)); err == nil {
		t.Error("expected error for reversed range")
	}
}

func TestOccurrenceByIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monthlyTransfer(t, "tpl-2", 3))
	if _, err := f.svc.MarkOccurrenceAsCompleted(ctx, "tpl-2", 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	e := NewOccurrenceEnumerator(f.store.Templates(), f.mods)

	got, err := e.Occurrence(ctx, "tpl-2", 1)
	if err != nil {
		t.Fatalf("occurrence: %v", err)
	}
	if got.State != core.StateCompleted || !got.Date.Equal(core.NewDate(2024, 2, 29)) {
		t.Errorf("occurrence = %+v", got)
	}
	if _, err := e.Occurrence(ctx, "tpl-2", 3); !errors.Is(err, core.ErrOccurrenceIndexOutOfRange) {
		t.Errorf("expected ErrOccurrenceIndexOutOfRange, got %v", err)
	}
}

func TestOccurrenceResolvesStrandedModification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monthlyTransfer(t, "tpl-2", 5))
	d := core.NewDate(2024, 5, 20)
	if _, err := f.svc.ModifyOccurrence(ctx, "tpl-2", 4, core.OccurrenceOverrides{Date: &d}); err != nil {
		t.Fatalf("modify: %v", err)
	}
	if err := f.store.Templates().Persist(ctx, monthlyTransfer(t, "tpl-2", 3)); err != nil {
		t.Fatalf("shorten: %v", err)
	}
	e := NewOccurrenceEnumerator(f.store.Templates(), f.mods)

	got, err := e.Occurrence(ctx, "tpl-2", 4)
	if err != nil {
		t.Fatalf("occurrence: %v", err)
	}
	if !got.Date.Equal(d) || !got.OriginalDate.Equal(core.NewDate(2024, 5, 31)) || !got.Modified {
		t.Errorf("occurrence = %+v", got)
	}
	if _, err := e.Occurrence(ctx, "tpl-2", 3); !errors.Is(err, core.ErrOccurrenceIndexOutOfRange) {
		t.Errorf("expected ErrOccurrenceIndexOutOfRange without a record, got %v", err)
	}
}

func TestEnumerateBetweenIncludesOccurrencesMovedIntoWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, weeklyExpense(t, "tpl-1"))
	early := core.NewDate(2024, 1, 10)
	if _, err := f.svc.ModifyOccurrence(ctx, "tpl-1", 4, core.OccurrenceOverrides{Date: &early}); err != nil {
		t.Fatalf("modify: %v", err)
	}
	late := core.NewDate(2024, 3, 1)
	if _, err := f.svc.ModifyOccurrence(ctx, "tpl-1", 1, core.OccurrenceOverrides{Date: &late}); err != nil {
		t.Fatalf("modify: %v", err)
	}
	e := NewOccurrenceEnumerator(f.store.Templates(), f.mods)

	got, err := e.EnumerateBetween(ctx, "tpl-1", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 15))
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	var indexes []int
	for _, info := range got {
		indexes = append(indexes, info.OccurrenceIndex)
	}
	want := []int{0, 2, 4}
	if len(indexes) != len(want) {
		t.Fatalf("indexes = %v, want %v", indexes, want)
	}
	for i := range want {
		if indexes[i] != want[i] {
			t.Fatalf("indexes = %v, want %v", indexes, want)
		}
	}
}
