package worker

import (
	"context"
	"log/slog"
	"time"

	"ricorrenze/internal/core"
	"ricorrenze/internal/services"
)

// UpcomingFinder lists the next pending occurrence of every template.
type UpcomingFinder interface {
	NextPendingForAll(ctx context.Context, horizon core.Date) ([]core.ItemRecurrenceInfo, error)
}

// ReminderWorker periodically publishes a reminder for every pending
// occurrence due within the horizon.
type ReminderWorker struct {
	upcoming  UpcomingFinder
	publisher services.OccurrenceEventPublisher
	horizon   time.Duration
	now       func() time.Time
}

func NewReminderWorker(upcoming UpcomingFinder, publisher services.OccurrenceEventPublisher, horizon time.Duration) *ReminderWorker {
	return &ReminderWorker{
		upcoming:  upcoming,
		publisher: publisher,
		horizon:   horizon,
		now:       time.Now,
	}
}

// Run ticks every interval until ctx is done. The first scan runs immediately.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	slog.InfoContext(ctx, "Reminder worker started", "interval", interval, "horizon", w.horizon)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reminder worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one scan and returns the number of reminders published.
func (w *ReminderWorker) Tick(ctx context.Context) (int, error) {
	now := w.now()
	horizon := core.NewDate(now.Year(), int(now.Month()), now.Day()).AddDays(int(w.horizon.Hours() / 24))

	items, err := w.upcoming.NextPendingForAll(ctx, horizon)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, info := range items {
		event := services.OccurrenceEvent{
			Type:            services.EventOccurrenceReminder,
			TemplateID:      info.ScheduledTransactionID,
			OccurrenceIndex: info.OccurrenceIndex,
			Date:            info.Date,
		}
		if err := w.publisher.PublishOccurrenceEvent(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"template_id", info.ScheduledTransactionID,
				"occurrence_index", info.OccurrenceIndex,
				"error", err)
			continue
		}
		sent++
	}

	slog.InfoContext(ctx, "Reminder scan completed",
		"horizon", horizon.String(),
		"due", len(items),
		"published", sent)
	return sent, nil
}
