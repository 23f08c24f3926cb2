package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ricorrenze/internal/core"
)

// RecurrenceModificationsService owns the lifecycle of occurrence overrides.
// A record is created the first time an occurrence needs an override or a
// non-pending state and removed as soon as it decays back to the default.
// Every write path looks the record up by (template, index) first and holds
// a per-key lock while doing so, so there is at most one record per key.
type RecurrenceModificationsService struct {
	templates     ScheduledTransactionRepository
	modifications RecurrenceModificationRepository
	locks         *KeyedLocker
	newID         IDGenerator
}

func NewRecurrenceModificationsService(templates ScheduledTransactionRepository, modifications RecurrenceModificationRepository) *RecurrenceModificationsService {
	return &RecurrenceModificationsService{
		templates:     templates,
		modifications: modifications,
		locks:         NewKeyedLocker(),
		newID:         uuid.NewString,
	}
}

// WithIDGenerator replaces the id generator, mostly for tests.
func (s *RecurrenceModificationsService) WithIDGenerator(gen IDGenerator) *RecurrenceModificationsService {
	s.newID = gen
	return s
}

// ModifyOccurrence applies the given overrides to one occurrence without
// changing its state.
func (s *RecurrenceModificationsService) ModifyOccurrence(ctx context.Context, templateID string, index int, o core.OccurrenceOverrides) (*core.RecurrenceModification, error) {
	return s.update(ctx, templateID, index, func(st core.ScheduledTransaction, m *core.RecurrenceModification) error {
		if err := o.Validate(st); err != nil {
			return err
		}
		m.Apply(o)
		return nil
	})
}

// MarkOccurrenceAsCompleted records the occurrence.
func (s *RecurrenceModificationsService) MarkOccurrenceAsCompleted(ctx context.Context, templateID string, index int) (*core.RecurrenceModification, error) {
	return s.transition(ctx, templateID, index, core.StateCompleted)
}

// MarkOccurrenceAsSkipped skips the occurrence without recording it.
func (s *RecurrenceModificationsService) MarkOccurrenceAsSkipped(ctx context.Context, templateID string, index int) (*core.RecurrenceModification, error) {
	return s.transition(ctx, templateID, index, core.StateSkipped)
}

// MarkOccurrenceAsDeleted removes the occurrence from the series.
func (s *RecurrenceModificationsService) MarkOccurrenceAsDeleted(ctx context.Context, templateID string, index int) (*core.RecurrenceModification, error) {
	return s.transition(ctx, templateID, index, core.StateDeleted)
}

// RecordOccurrence stores overrides and marks the occurrence completed in a
// single write.
func (s *RecurrenceModificationsService) RecordOccurrence(ctx context.Context, templateID string, index int, o core.OccurrenceOverrides) (*core.RecurrenceModification, error) {
	return s.update(ctx, templateID, index, func(st core.ScheduledTransaction, m *core.RecurrenceModification) error {
		if err := o.Validate(st); err != nil {
			return err
		}
		if err := m.TransitionTo(core.StateCompleted); err != nil {
			return err
		}
		m.Apply(o)
		// Recording on the projected date is not a date override.
		if m.Date != nil && m.Date.Equal(m.OriginalDate) {
			m.Date = nil
		}
		return nil
	})
}

func (s *RecurrenceModificationsService) transition(ctx context.Context, templateID string, index int, next core.ModificationState) (*core.RecurrenceModification, error) {
	return s.update(ctx, templateID, index, func(_ core.ScheduledTransaction, m *core.RecurrenceModification) error {
		return m.TransitionTo(next)
	})
}

// ResetOccurrenceToPending puts the occurrence back to pending and reports
// whether a record changed. Without a record this is a no-op; a record left
// with no overrides is deleted.
func (s *RecurrenceModificationsService) ResetOccurrenceToPending(ctx context.Context, templateID string, index int) (bool, error) {
	unlock := s.locks.Lock(occurrenceKey(templateID, index))
	defer unlock()

	m, err := s.modifications.FindByTemplateIDAndIndex(ctx, templateID, index)
	if err != nil {
		return false, fmt.Errorf("find modification: %w", err)
	}
	if m == nil || m.State == core.StatePending {
		return false, nil
	}
	if err := m.TransitionTo(core.StatePending); err != nil {
		return false, err
	}
	if err := s.store(ctx, m, true); err != nil {
		return false, err
	}
	return true, nil
}

// ClearAllModifications drops every override of a template. Records that
// only carried overrides are deleted; the rest keep their state. Each record
// is re-read under its lock so concurrent state changes are kept.
func (s *RecurrenceModificationsService) ClearAllModifications(ctx context.Context, templateID string) error {
	mods, err := s.modifications.FindByTemplateID(ctx, templateID)
	if err != nil {
		return fmt.Errorf("load modifications of %s: %w", templateID, err)
	}

	cleared := 0
	for _, snapshot := range mods {
		ok, err := s.clearOverrides(ctx, templateID, snapshot.OccurrenceIndex)
		if err != nil {
			return err
		}
		if ok {
			cleared++
		}
	}

	slog.InfoContext(ctx, "Cleared occurrence overrides",
		"template_id", templateID,
		"records", cleared)
	return nil
}

func (s *RecurrenceModificationsService) clearOverrides(ctx context.Context, templateID string, index int) (bool, error) {
	unlock := s.locks.Lock(occurrenceKey(templateID, index))
	defer unlock()

	m, err := s.modifications.FindByTemplateIDAndIndex(ctx, templateID, index)
	if err != nil {
		return false, fmt.Errorf("find modification: %w", err)
	}
	if m == nil {
		return false, nil
	}
	m.ClearOverrides()
	return true, s.store(ctx, m, true)
}

// update runs the find-or-create path for one occurrence under its lock.
func (s *RecurrenceModificationsService) update(
	ctx context.Context,
	templateID string,
	index int,
	mutate func(core.ScheduledTransaction, *core.RecurrenceModification) error,
) (*core.RecurrenceModification, error) {
	unlock := s.locks.Lock(occurrenceKey(templateID, index))
	defer unlock()

	st, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("load scheduled transaction %s: %w", templateID, err)
	}

	m, err := s.modifications.FindByTemplateIDAndIndex(ctx, templateID, index)
	if err != nil {
		return nil, fmt.Errorf("find modification: %w", err)
	}
	existed := m != nil
	if !existed {
		originalDate, err := st.OccurrenceDate(index)
		if err != nil {
			return nil, err
		}
		m = core.NewRecurrenceModification(s.newID(), templateID, index, originalDate)
	}

	if err := mutate(*st, m); err != nil {
		return nil, err
	}
	if err := s.store(ctx, m, existed); err != nil {
		return nil, err
	}
	return m, nil
}

// store persists m, or deletes it when it no longer differs from the
// default projection. A record that was never stored is simply dropped.
func (s *RecurrenceModificationsService) store(ctx context.Context, m *core.RecurrenceModification, existed bool) error {
	if !m.HasModifications() {
		if !existed {
			return nil
		}
		if err := s.modifications.DeleteByID(ctx, m.ID); err != nil {
			return fmt.Errorf("delete modification %s: %w", m.ID, err)
		}
		slog.InfoContext(ctx, "Removed modification back to default",
			"template_id", m.ScheduledTransactionID,
			"occurrence_index", m.OccurrenceIndex)
		return nil
	}

	if err := s.modifications.Persist(ctx, *m); err != nil {
		return fmt.Errorf("persist modification: %w", err)
	}
	slog.InfoContext(ctx, "Saved modification",
		"template_id", m.ScheduledTransactionID,
		"occurrence_index", m.OccurrenceIndex,
		"state", m.State,
		"has_date_override", m.Date != nil,
		"has_split_override", len(m.OriginSplits) > 0 || len(m.DestinationSplits) > 0)
	return nil
}
