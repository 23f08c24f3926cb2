package services

import (
	"context"

	"ricorrenze/internal/core"
)

// Ports implemented by the persistence layer.
type (
	// ScheduledTransactionRepository stores templates. FindByID returns an
	// error wrapping core.ErrTemplateNotFound on a miss.
	ScheduledTransactionRepository interface {
		FindByID(ctx context.Context, id string) (*core.ScheduledTransaction, error)
		FindAll(ctx context.Context) ([]core.ScheduledTransaction, error)
		Persist(ctx context.Context, st core.ScheduledTransaction) error
		DeleteByID(ctx context.Context, id string) error
	}

	// RecurrenceModificationRepository stores sparse occurrence overrides.
	// FindByTemplateIDAndIndex returns (nil, nil) when no record exists.
	RecurrenceModificationRepository interface {
		FindByTemplateID(ctx context.Context, templateID string) ([]core.RecurrenceModification, error)
		FindByTemplateIDAndIndex(ctx context.Context, templateID string, index int) (*core.RecurrenceModification, error)
		Persist(ctx context.Context, m core.RecurrenceModification) error
		DeleteByID(ctx context.Context, id string) error
		DeleteByTemplateID(ctx context.Context, templateID string) error
	}

	// OccurrenceEventPublisher is notified after an occurrence changes state.
	OccurrenceEventPublisher interface {
		PublishOccurrenceEvent(ctx context.Context, event OccurrenceEvent) error
	}

	// IDGenerator returns a new unique identifier.
	IDGenerator func() string
)

// OccurrenceEventType names what happened to an occurrence.
type OccurrenceEventType string

const (
	EventOccurrenceRecorded OccurrenceEventType = "occurrence.recorded"
	EventOccurrenceDeleted  OccurrenceEventType = "occurrence.deleted"
	EventOccurrenceSkipped  OccurrenceEventType = "occurrence.skipped"
	EventOccurrenceReset    OccurrenceEventType = "occurrence.reset"
	EventOccurrenceReminder OccurrenceEventType = "occurrence.reminder"
)

// OccurrenceEvent identifies a single occurrence; consumers reload its
// current state instead of trusting the payload.
type OccurrenceEvent struct {
	Type            OccurrenceEventType
	TemplateID      string
	OccurrenceIndex int
	Date            core.Date
}
