package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"ricorrenze/internal/core"
)

// ScheduledTransactionService is the entry point used by the HTTP layer and
// the workers. It manages templates and routes every per-occurrence change
// through RecurrenceModificationsService; templates are never rewritten to
// change a single occurrence.
type ScheduledTransactionService struct {
	templates     ScheduledTransactionRepository
	modifications RecurrenceModificationRepository
	overrides     *RecurrenceModificationsService
	enumerator    *OccurrenceEnumerator
	finder        *NextPendingOccurrenceFinder
	publisher     OccurrenceEventPublisher
	newID         IDGenerator
}

func NewScheduledTransactionService(
	templates ScheduledTransactionRepository,
	modifications RecurrenceModificationRepository,
	publisher OccurrenceEventPublisher,
) *ScheduledTransactionService {
	return &ScheduledTransactionService{
		templates:     templates,
		modifications: modifications,
		overrides:     NewRecurrenceModificationsService(templates, modifications),
		enumerator:    NewOccurrenceEnumerator(templates, modifications),
		finder:        NewNextPendingOccurrenceFinder(templates, modifications),
		publisher:     publisher,
		newID:         uuid.NewString,
	}
}

// CreateTemplate validates and stores a new template, assigning an id when
// none is set.
func (s *ScheduledTransactionService) CreateTemplate(ctx context.Context, st core.ScheduledTransaction) (core.ScheduledTransaction, error) {
	if st.ID == "" {
		st.ID = s.newID()
	}
	if err := st.Validate(); err != nil {
		return core.ScheduledTransaction{}, fmt.Errorf("validate scheduled transaction: %w", err)
	}
	if err := s.templates.Persist(ctx, st); err != nil {
		return core.ScheduledTransaction{}, fmt.Errorf("save scheduled transaction: %w", err)
	}

	slog.InfoContext(ctx, "Scheduled transaction created",
		"template_id", st.ID,
		"name", st.Name,
		"operation", st.Operation,
		"amount_cents", st.Amount.Cents,
		"recurrence", st.Recurrence.Type)
	return st, nil
}

// UpdateTemplate replaces an existing template in place, which changes all
// future projections. Stored modifications keep their original dates.
func (s *ScheduledTransactionService) UpdateTemplate(ctx context.Context, st core.ScheduledTransaction) (core.ScheduledTransaction, error) {
	if _, err := s.templates.FindByID(ctx, st.ID); err != nil {
		return core.ScheduledTransaction{}, fmt.Errorf("load scheduled transaction %s: %w", st.ID, err)
	}
	if err := st.Validate(); err != nil {
		return core.ScheduledTransaction{}, fmt.Errorf("validate scheduled transaction: %w", err)
	}
	if err := s.templates.Persist(ctx, st); err != nil {
		return core.ScheduledTransaction{}, fmt.Errorf("save scheduled transaction: %w", err)
	}
	slog.InfoContext(ctx, "Scheduled transaction updated", "template_id", st.ID)
	return st, nil
}

func (s *ScheduledTransactionService) GetTemplate(ctx context.Context, id string) (*core.ScheduledTransaction, error) {
	st, err := s.templates.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scheduled transaction %s: %w", id, err)
	}
	return st, nil
}

func (s *ScheduledTransactionService) ListTemplates(ctx context.Context) ([]core.ScheduledTransaction, error) {
	list, err := s.templates.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scheduled transactions: %w", err)
	}
	return list, nil
}

// DeleteTemplate removes a template together with all of its modifications.
func (s *ScheduledTransactionService) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.templates.FindByID(ctx, id); err != nil {
		return fmt.Errorf("load scheduled transaction %s: %w", id, err)
	}
	if err := s.modifications.DeleteByTemplateID(ctx, id); err != nil {
		return fmt.Errorf("delete modifications of %s: %w", id, err)
	}
	if err := s.templates.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete scheduled transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Scheduled transaction deleted", "template_id", id)
	return nil
}

// EnumerateOccurrences lists occurrences up to and including until.
func (s *ScheduledTransactionService) EnumerateOccurrences(ctx context.Context, id string, until core.Date) ([]core.ItemRecurrenceInfo, error) {
	return s.enumerator.Enumerate(ctx, id, until)
}

// EnumerateOccurrencesBetween lists occurrences dated within [from, until].
func (s *ScheduledTransactionService) EnumerateOccurrencesBetween(ctx context.Context, id string, from, until core.Date) ([]core.ItemRecurrenceInfo, error) {
	return s.enumerator.EnumerateBetween(ctx, id, from, until)
}

// GetOccurrence returns the effective view of one occurrence.
func (s *ScheduledTransactionService) GetOccurrence(ctx context.Context, id string, index int) (*core.ItemRecurrenceInfo, error) {
	return s.enumerator.Occurrence(ctx, id, index)
}

// NextPendingOccurrence returns nil when nothing is pending.
func (s *ScheduledTransactionService) NextPendingOccurrence(ctx context.Context, id string) (*core.ItemRecurrenceInfo, error) {
	return s.finder.Execute(ctx, id)
}

// RecordOccurrence marks an occurrence completed with the values actually used.
func (s *ScheduledTransactionService) RecordOccurrence(ctx context.Context, id string, index int, date core.Date, origin, destination []core.Split) (*core.RecurrenceModification, error) {
	m, err := s.overrides.RecordOccurrence(ctx, id, index, core.OccurrenceOverrides{
		Date:              &date,
		OriginSplits:      origin,
		DestinationSplits: destination,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOccurrenceRecorded, m)
	return m, nil
}

// EditSingleOccurrence overrides fields of one occurrence only.
func (s *ScheduledTransactionService) EditSingleOccurrence(ctx context.Context, id string, index int, o core.OccurrenceOverrides) (*core.RecurrenceModification, error) {
	return s.overrides.ModifyOccurrence(ctx, id, index, o)
}

// DeleteSingleOccurrence marks one occurrence deleted.
func (s *ScheduledTransactionService) DeleteSingleOccurrence(ctx context.Context, id string, index int) (*core.RecurrenceModification, error) {
	m, err := s.overrides.MarkOccurrenceAsDeleted(ctx, id, index)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOccurrenceDeleted, m)
	return m, nil
}

// SkipOccurrence marks one occurrence skipped.
func (s *ScheduledTransactionService) SkipOccurrence(ctx context.Context, id string, index int) (*core.RecurrenceModification, error) {
	m, err := s.overrides.MarkOccurrenceAsSkipped(ctx, id, index)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOccurrenceSkipped, m)
	return m, nil
}

// ResetOccurrence puts one occurrence back to pending and reports whether
// anything changed. Nothing is published when the occurrence already was
// pending.
func (s *ScheduledTransactionService) ResetOccurrence(ctx context.Context, id string, index int) (bool, error) {
	changed, err := s.overrides.ResetOccurrenceToPending(ctx, id, index)
	if err != nil || !changed {
		return false, err
	}
	s.publish(ctx, EventOccurrenceReset, &core.RecurrenceModification{ScheduledTransactionID: id, OccurrenceIndex: index})
	return true, nil
}

// ClearAllModifications drops every override of a template.
func (s *ScheduledTransactionService) ClearAllModifications(ctx context.Context, id string) error {
	return s.overrides.ClearAllModifications(ctx, id)
}

// PricePerMonth returns the amortized monthly rate of a template.
func (s *ScheduledTransactionService) PricePerMonth(ctx context.Context, id string, classifier core.AccountClassifier) (core.Money, error) {
	st, err := s.GetTemplate(ctx, id)
	if err != nil {
		return core.Money{}, err
	}
	return st.PricePerMonth(classifier)
}

// publish notifies listeners; failures are logged since the change is
// already stored.
func (s *ScheduledTransactionService) publish(ctx context.Context, typ OccurrenceEventType, m *core.RecurrenceModification) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping occurrence event", "type", typ)
		return
	}
	event := OccurrenceEvent{
		Type:            typ,
		TemplateID:      m.ScheduledTransactionID,
		OccurrenceIndex: m.OccurrenceIndex,
		Date:            m.OriginalDate,
	}
	if m.Date != nil {
		event.Date = *m.Date
	}
	if err := s.publisher.PublishOccurrenceEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish occurrence event",
			"type", typ,
			"template_id", event.TemplateID,
			"occurrence_index", event.OccurrenceIndex,
			"error", err)
	}
}
