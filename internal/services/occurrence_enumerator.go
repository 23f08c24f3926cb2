package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"ricorrenze/internal/core"
)

// OccurrenceEnumerator materializes the occurrences of a template up to a date.
type OccurrenceEnumerator struct {
	templates     ScheduledTransactionRepository
	modifications RecurrenceModificationRepository
}

func NewOccurrenceEnumerator(templates ScheduledTransactionRepository, modifications RecurrenceModificationRepository) *OccurrenceEnumerator {
	return &OccurrenceEnumerator{
		templates:     templates,
		modifications: modifications,
	}
}

// Enumerate returns every occurrence whose computed date is on or before
// until, in increasing index order. Deleted occurrences are included with
// their state so callers can decide how to render them.
func (e *OccurrenceEnumerator) Enumerate(ctx context.Context, templateID string, until core.Date) ([]core.ItemRecurrenceInfo, error) {
	st, mods, err := loadTemplateWithModifications(ctx, e.templates, e.modifications, templateID)
	if err != nil {
		return nil, err
	}
	return enumerateUntil(ctx, *st, mods, until), nil
}

// EnumerateBetween returns the occurrences whose effective date falls in
// [from, until], in increasing index order. Occurrences computed after until
// are still included when a date override moves them into the window.
func (e *OccurrenceEnumerator) EnumerateBetween(ctx context.Context, templateID string, from, until core.Date) ([]core.ItemRecurrenceInfo, error) {
	if until.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is before %s", until, from)
	}
	st, mods, err := loadTemplateWithModifications(ctx, e.templates, e.modifications, templateID)
	if err != nil {
		return nil, err
	}

	inWindow := func(info core.ItemRecurrenceInfo) bool {
		return !info.Date.Before(from) && !info.Date.After(until)
	}

	all := enumerateUntil(ctx, *st, mods, until)
	out := make([]core.ItemRecurrenceInfo, 0, len(all))
	for _, info := range all {
		if inWindow(info) {
			out = append(out, info)
		}
	}

	last := len(all) - 1
	var moved []core.ItemRecurrenceInfo
	for index, m := range mods {
		if index <= last || m.Date == nil {
			continue
		}
		if info := core.FromModification(*st, *m); inWindow(info) {
			moved = append(moved, info)
		}
	}
	if len(moved) > 0 {
		out = append(out, moved...)
		sort.Slice(out, func(i, j int) bool { return out[i].OccurrenceIndex < out[j].OccurrenceIndex })
	}
	return out, nil
}

// Occurrence materializes a single occurrence by index. A stored
// modification is resolved from its own original date, so it stays readable
// after the template's rule is shortened past its index.
func (e *OccurrenceEnumerator) Occurrence(ctx context.Context, templateID string, index int) (*core.ItemRecurrenceInfo, error) {
	st, err := e.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("load scheduled transaction %s: %w", templateID, err)
	}
	m, err := e.modifications.FindByTemplateIDAndIndex(ctx, templateID, index)
	if err != nil {
		return nil, fmt.Errorf("find modification: %w", err)
	}
	if m != nil {
		info := core.FromModification(*st, *m)
		return &info, nil
	}
	date, err := st.OccurrenceDate(index)
	if err != nil {
		return nil, err
	}
	info := core.FromScheduledTransaction(*st, index, date)
	return &info, nil
}

func enumerateUntil(ctx context.Context, st core.ScheduledTransaction, mods map[int]*core.RecurrenceModification, until core.Date) []core.ItemRecurrenceInfo {
	var out []core.ItemRecurrenceInfo
	for i := 0; ; i++ {
		date, ok := st.Recurrence.NthOccurrence(i)
		if !ok || date.After(until) {
			break
		}
		out = append(out, core.Materialize(st, i, date, mods[i]))
	}

	slog.DebugContext(ctx, "Enumerated occurrences",
		"template_id", st.ID,
		"until", until.String(),
		"count", len(out),
		"modifications", len(mods))
	return out
}

// loadTemplateWithModifications fetches a template and all of its
// modifications in one batch, keyed by occurrence index.
func loadTemplateWithModifications(
	ctx context.Context,
	templates ScheduledTransactionRepository,
	modifications RecurrenceModificationRepository,
	templateID string,
) (*core.ScheduledTransaction, map[int]*core.RecurrenceModification, error) {
	st, err := templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, nil, fmt.Errorf("load scheduled transaction %s: %w", templateID, err)
	}
	list, err := modifications.FindByTemplateID(ctx, templateID)
	if err != nil {
		return nil, nil, fmt.Errorf("load modifications of %s: %w", templateID, err)
	}
	return st, indexModifications(ctx, list), nil
}

func indexModifications(ctx context.Context, list []core.RecurrenceModification) map[int]*core.RecurrenceModification {
	byIndex := make(map[int]*core.RecurrenceModification, len(list))
	for i := range list {
		m := &list[i]
		if _, dup := byIndex[m.OccurrenceIndex]; dup {
			slog.WarnContext(ctx, "Duplicate modification for occurrence, keeping the first",
				"template_id", m.ScheduledTransactionID,
				"occurrence_index", m.OccurrenceIndex,
				"modification_id", m.ID)
			continue
		}
		byIndex[m.OccurrenceIndex] = m
	}
	return byIndex
}
