package core

import (
	"errors"
	"fmt"
)

const (
	StatePending   ModificationState = "PENDING"
	StateCompleted ModificationState = "COMPLETED"
	StateSkipped   ModificationState = "SKIPPED"
	StateDeleted   ModificationState = "DELETED"
)

type (
	ModificationState string

	// RecurrenceModification overrides a single occurrence of a template.
	// Unset override fields fall back to the template's values.
	RecurrenceModification struct {
		ID                     string
		ScheduledTransactionID string
		OccurrenceIndex        int
		OriginalDate           Date
		State                  ModificationState
		Date                   *Date
		OriginSplits           []Split
		DestinationSplits      []Split
	}

	// OccurrenceOverrides carries the optional fields of an edit.
	OccurrenceOverrides struct {
		Date              *Date
		OriginSplits      []Split
		DestinationSplits []Split
	}
)

var (
	ErrModificationNotFound   = errors.New("recurrence modification not found")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidState           = errors.New("invalid modification state")
)

func (s ModificationState) Validate() error {
	switch s {
	case StatePending, StateCompleted, StateSkipped, StateDeleted:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidState, string(s))
	}
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Pending can move to any final state, final states can only be reset to
// pending, and staying in the same state is always allowed.
func (s ModificationState) CanTransitionTo(next ModificationState) bool {
	if s == next {
		return true
	}
	if s == StatePending {
		return next == StateCompleted || next == StateSkipped || next == StateDeleted
	}
	return next == StatePending
}

// NewRecurrenceModification creates a pending modification with no overrides.
func NewRecurrenceModification(id, templateID string, index int, originalDate Date) *RecurrenceModification {
	return &RecurrenceModification{
		ID:                     id,
		ScheduledTransactionID: templateID,
		OccurrenceIndex:        index,
		OriginalDate:           originalDate,
		State:                  StatePending,
	}
}

// HasModifications reports whether the record differs from the default
// projection. Records without modifications may be deleted.
func (m *RecurrenceModification) HasModifications() bool {
	return m.Date != nil || len(m.OriginSplits) > 0 || len(m.DestinationSplits) > 0 || m.State != StatePending
}

// TransitionTo moves the modification to next, rejecting transitions the
// state machine does not allow.
func (m *RecurrenceModification) TransitionTo(next ModificationState) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if !m.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s for occurrence %d of %s",
			ErrInvalidStateTransition, m.State, next, m.OccurrenceIndex, m.ScheduledTransactionID)
	}
	m.State = next
	return nil
}

// UpdateDate overrides the occurrence date. The state is left untouched.
func (m *RecurrenceModification) UpdateDate(d Date) {
	m.Date = &d
}

// UpdateSplits overrides origin and/or destination splits. Nil slices are
// left as they are. The state is left untouched.
func (m *RecurrenceModification) UpdateSplits(origin, destination []Split) {
	if origin != nil {
		m.OriginSplits = cloneSplits(origin)
	}
	if destination != nil {
		m.DestinationSplits = cloneSplits(destination)
	}
}

// Apply copies every set field of o onto the modification.
func (m *RecurrenceModification) Apply(o OccurrenceOverrides) {
	if o.Date != nil {
		m.UpdateDate(*o.Date)
	}
	m.UpdateSplits(o.OriginSplits, o.DestinationSplits)
}

// ClearOverrides removes every override field, keeping the state.
func (m *RecurrenceModification) ClearOverrides() {
	m.Date = nil
	m.OriginSplits = nil
	m.DestinationSplits = nil
}

// Validate checks the override values against the template they belong to.
func (o OccurrenceOverrides) Validate(st ScheduledTransaction) error {
	if o.Date != nil {
		if err := o.Date.Validate(); err != nil {
			return fmt.Errorf("override date: %w", err)
		}
	}
	if o.OriginSplits != nil {
		if err := ValidateSplits(o.OriginSplits, Money{}); err != nil {
			return fmt.Errorf("origin: %w", err)
		}
	}
	if o.DestinationSplits != nil {
		if st.Operation != Transfer {
			return fmt.Errorf("%w: destination splits are only allowed on transfers", ErrInvalidSplits)
		}
		if err := ValidateSplits(o.DestinationSplits, Money{}); err != nil {
			return fmt.Errorf("destination: %w", err)
		}
	}
	return nil
}

// IsEmpty reports whether no override field is set.
func (o OccurrenceOverrides) IsEmpty() bool {
	return o.Date == nil && o.OriginSplits == nil && o.DestinationSplits == nil
}
