package services

import (
	"context"
	"log/slog"

	"ricorrenze/internal/core"
)

// MaxPendingSearchIterations bounds the scan for the next pending
// occurrence. Templates whose first MaxPendingSearchIterations occurrences
// are all recorded, skipped or deleted report nothing pending instead of
// scanning an unbounded series.
const MaxPendingSearchIterations = 100

// NextPendingOccurrenceFinder finds the first occurrence of a template that
// still awaits user action.
type NextPendingOccurrenceFinder struct {
	templates     ScheduledTransactionRepository
	modifications RecurrenceModificationRepository
}

func NewNextPendingOccurrenceFinder(templates ScheduledTransactionRepository, modifications RecurrenceModificationRepository) *NextPendingOccurrenceFinder {
	return &NextPendingOccurrenceFinder{
		templates:     templates,
		modifications: modifications,
	}
}

// Execute returns the next pending occurrence, or nil when the series is
// exhausted or nothing is pending within the search bound.
func (f *NextPendingOccurrenceFinder) Execute(ctx context.Context, templateID string) (*core.ItemRecurrenceInfo, error) {
	st, mods, err := loadTemplateWithModifications(ctx, f.templates, f.modifications, templateID)
	if err != nil {
		return nil, err
	}
	return findNextPending(ctx, *st, mods), nil
}

func findNextPending(ctx context.Context, st core.ScheduledTransaction, mods map[int]*core.RecurrenceModification) *core.ItemRecurrenceInfo {
	for i := 0; i < MaxPendingSearchIterations; i++ {
		date, ok := st.Recurrence.NthOccurrence(i)
		if !ok {
			return nil
		}
		info := core.Materialize(st, i, date, mods[i])
		if info.IsPending() {
			return &info
		}
	}

	slog.DebugContext(ctx, "No pending occurrence within search bound",
		"template_id", st.ID,
		"max_iterations", MaxPendingSearchIterations)
	return nil
}
