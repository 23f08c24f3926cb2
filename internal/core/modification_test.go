package core

import (
	"errors"
	"testing"
)

func TestModificationStateTransitions(t *testing.T) {
	tests := []struct {
		from, to ModificationState
		ok       bool
	}{
		{StatePending, StateCompleted, true},
		{StatePending, StateSkipped, true},
		{StatePending, StateDeleted, true},
		{StatePending, StatePending, true},
		{StateCompleted, StatePending, true},
		{StateSkipped, StatePending, true},
		{StateDeleted, StatePending, true},
		{StateCompleted, StateCompleted, true},
		{StateCompleted, StateDeleted, false},
		{StateSkipped, StateCompleted, false},
		{StateDeleted, StateSkipped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewRecurrenceModification("m", "tpl", 0, NewDate(2024, 1, 1))
			m.State = tt.from
			err := m.TransitionTo(tt.to)
			if tt.ok {
				if err != nil {
					t.Fatalf("TransitionTo() unexpected error: %v", err)
				}
				if m.State != tt.to {
					t.Fatalf("state = %s, want %s", m.State, tt.to)
				}
				return
			}
			if !errors.Is(err, ErrInvalidStateTransition) {
				t.Fatalf("TransitionTo() = %v, want ErrInvalidStateTransition", err)
			}
			if m.State != tt.from {
				t.Fatalf("rejected transition changed the state to %s", m.State)
			}
		})
	}

	m := NewRecurrenceModification("m", "tpl", 0, NewDate(2024, 1, 1))
	if err := m.TransitionTo("ARCHIVED"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("TransitionTo(unknown) = %v, want ErrInvalidState", err)
	}
}

func TestHasModifications(t *testing.T) {
	d := NewDate(2024, 1, 3)
	tests := []struct {
		name string
		mod  func(*RecurrenceModification)
		want bool
	}{
		{"fresh record", func(*RecurrenceModification) {}, false},
		{"date override", func(m *RecurrenceModification) { m.Date = &d }, true},
		{"origin override", func(m *RecurrenceModification) {
			m.OriginSplits = []Split{{AccountID: "a", Amount: Money{Cents: 1}}}
		}, true},
		{"destination override", func(m *RecurrenceModification) {
			m.DestinationSplits = []Split{{AccountID: "a", Amount: Money{Cents: 1}}}
		}, true},
		{"completed", func(m *RecurrenceModification) { m.State = StateCompleted }, true},
		{"skipped", func(m *RecurrenceModification) { m.State = StateSkipped }, true},
		{"deleted", func(m *RecurrenceModification) { m.State = StateDeleted }, true},
		{"overrides cleared", func(m *RecurrenceModification) {
			m.Date = &d
			m.ClearOverrides()
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewRecurrenceModification("m", "tpl", 0, NewDate(2024, 1, 1))
			tt.mod(m)
			if got := m.HasModifications(); got != tt.want {
				t.Errorf("HasModifications() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdatesKeepState(t *testing.T) {
	m := NewRecurrenceModification("m", "tpl", 2, NewDate(2024, 1, 15))
	m.State = StateCompleted

	m.UpdateDate(NewDate(2024, 1, 16))
	m.UpdateSplits([]Split{{AccountID: "a", Amount: Money{Cents: 5}}}, nil)
	if m.State != StateCompleted {
		t.Fatalf("updating overrides changed state to %s", m.State)
	}
	if m.Date == nil || !m.Date.Equal(NewDate(2024, 1, 16)) {
		t.Fatalf("date override not applied")
	}
	if len(m.OriginSplits) != 1 || m.DestinationSplits != nil {
		t.Fatalf("unexpected splits: %+v / %+v", m.OriginSplits, m.DestinationSplits)
	}
}

func TestOverridesValidate(t *testing.T) {
	st := weeklyExpense(t)
	bad := Date{}

	if err := (OccurrenceOverrides{}).Validate(st); err != nil {
		t.Fatalf("empty overrides should be valid: %v", err)
	}
	if err := (OccurrenceOverrides{Date: &bad}).Validate(st); err == nil {
		t.Fatalf("expected error for zero date")
	}
	if err := (OccurrenceOverrides{OriginSplits: []Split{}}).Validate(st); !errors.Is(err, ErrInvalidSplits) {
		t.Fatalf("expected ErrInvalidSplits for empty origin override, got %v", err)
	}
	dest := []Split{{AccountID: "b", Amount: Money{Cents: 1}}}
	if err := (OccurrenceOverrides{DestinationSplits: dest}).Validate(st); !errors.Is(err, ErrInvalidSplits) {
		t.Fatalf("expected ErrInvalidSplits for destination on expense, got %v", err)
	}
}
