package memory

import (
	"context"
	"testing"

	"ricorrenze/internal/core"
)

func TestMemoryStoreAppendAndLookup(t *testing.T) {
	ctx := context.Background()
	s := New()
	info := core.ItemRecurrenceInfo{
		ScheduledTransactionID: "tpl-1",
		OccurrenceIndex:        2,
		Date:                   core.NewDate(2024, 1, 15),
		State:                  core.StateCompleted,
		Amount:                 core.Money{Cents: 1000},
	}

	if ok, _ := s.HasOccurrence(ctx, info); ok {
		t.Fatal("expected empty store")
	}
	ref, err := s.AppendOccurrence(ctx, info)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	if ok, _ := s.HasOccurrence(ctx, info); !ok {
		t.Error("expected occurrence to be found")
	}
	other := info
	other.OccurrenceIndex = 3
	if ok, _ := s.HasOccurrence(ctx, other); ok {
		t.Error("did not expect another index to be found")
	}
	if rows := s.Rows(); len(rows) != 1 || rows[0].OccurrenceIndex != 2 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestMemoryStoreRejectsAnonymousOccurrence(t *testing.T) {
	if _, err := New().AppendOccurrence(context.Background(), core.ItemRecurrenceInfo{}); err == nil {
		t.Fatal("expected an error")
	}
}
