package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ricorrenze/internal/amqp"
	"ricorrenze/internal/core"
	"ricorrenze/internal/services"
	"ricorrenze/internal/sheets"
)

// OccurrenceSource is the read side of the scheduled transaction service
// the sync worker needs.
type OccurrenceSource interface {
	GetOccurrence(ctx context.Context, id string, index int) (*core.ItemRecurrenceInfo, error)
	ListTemplates(ctx context.Context) ([]core.ScheduledTransaction, error)
	EnumerateOccurrences(ctx context.Context, id string, until core.Date) ([]core.ItemRecurrenceInfo, error)
}

// SyncWorker exports recorded occurrences to a spreadsheet.
type SyncWorker struct {
	source   OccurrenceSource
	exporter sheets.Exporter
}

func NewSyncWorker(source OccurrenceSource, exporter sheets.Exporter) *SyncWorker {
	return &SyncWorker{source: source, exporter: exporter}
}

// HandleOccurrenceMessage processes one occurrence event from AMQP. Only
// recorded occurrences are exported; other events are acknowledged as is.
func (w *SyncWorker) HandleOccurrenceMessage(ctx context.Context, msg *amqp.OccurrenceEventMessage) error {
	event, err := msg.Event()
	if err != nil {
		slog.WarnContext(ctx, "Dropping malformed occurrence event", "error", err)
		return nil
	}
	if event.Type != services.EventOccurrenceRecorded {
		slog.DebugContext(ctx, "Ignoring occurrence event", "type", event.Type, "template_id", event.TemplateID)
		return nil
	}

	info, err := w.source.GetOccurrence(ctx, event.TemplateID, event.OccurrenceIndex)
	if errors.Is(err, core.ErrTemplateNotFound) || errors.Is(err, core.ErrOccurrenceIndexOutOfRange) {
		slog.WarnContext(ctx, "Occurrence no longer exists, skipping export",
			"template_id", event.TemplateID,
			"occurrence_index", event.OccurrenceIndex,
			"error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load occurrence: %w", err)
	}
	return w.export(ctx, *info)
}

// StartupSync exports every recorded occurrence up to until that is not in
// the sheet yet. It recovers from events lost while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context, until core.Date) error {
	templates, err := w.source.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("list templates for startup sync: %w", err)
	}

	exported, failed := 0, 0
	for _, st := range templates {
		items, err := w.source.EnumerateOccurrences(ctx, st.ID, until)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to enumerate occurrences", "template_id", st.ID, "error", err)
			failed++
			continue
		}
		for _, info := range items {
			if info.State != core.StateCompleted {
				continue
			}
			if err := w.export(ctx, info); err != nil {
				slog.ErrorContext(ctx, "Failed to export occurrence during startup",
					"template_id", info.ScheduledTransactionID,
					"occurrence_index", info.OccurrenceIndex,
					"error", err)
				failed++
				continue
			}
			exported++
		}
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"templates", len(templates),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, info core.ItemRecurrenceInfo) error {
	if info.State != core.StateCompleted {
		slog.InfoContext(ctx, "Occurrence is no longer recorded, skipping export",
			"template_id", info.ScheduledTransactionID,
			"occurrence_index", info.OccurrenceIndex,
			"state", info.State)
		return nil
	}

	exists, err := w.exporter.HasOccurrence(ctx, info)
	if err != nil {
		return fmt.Errorf("check exported occurrence: %w", err)
	}
	if exists {
		slog.DebugContext(ctx, "Occurrence already exported",
			"template_id", info.ScheduledTransactionID,
			"occurrence_index", info.OccurrenceIndex)
		return nil
	}

	ref, err := w.exporter.AppendOccurrence(ctx, info)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully exported occurrence",
		"template_id", info.ScheduledTransactionID,
		"occurrence_index", info.OccurrenceIndex,
		"sheets_ref", ref,
		"amount_cents", info.Amount.Cents)
	return nil
}
