package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ricorrenze/internal/core"
)

// Store keeps templates and modifications in memory. It implements both
// repository ports and is safe for concurrent use. Values are copied on the
// way in and out so callers never share slices with the store.
type Store struct {
	mu        sync.Mutex
	templates map[string]core.ScheduledTransaction
	mods      map[string]core.RecurrenceModification
}

func New() *Store {
	return &Store{
		templates: make(map[string]core.ScheduledTransaction),
		mods:      make(map[string]core.RecurrenceModification),
	}
}

// Templates returns the template repository view of the store.
func (s *Store) Templates() *TemplateRepository { return &TemplateRepository{s: s} }

// Modifications returns the modification repository view of the store.
func (s *Store) Modifications() *ModificationRepository { return &ModificationRepository{s: s} }

type TemplateRepository struct{ s *Store }

func (r *TemplateRepository) FindByID(_ context.Context, id string) (*core.ScheduledTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTemplateNotFound, id)
	}
	c := st.Clone()
	return &c, nil
}

func (r *TemplateRepository) FindAll(_ context.Context) ([]core.ScheduledTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]core.ScheduledTransaction, 0, len(r.s.templates))
	for _, st := range r.s.templates {
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *TemplateRepository) Persist(_ context.Context, st core.ScheduledTransaction) error {
	if st.ID == "" {
		return fmt.Errorf("scheduled transaction id is required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.templates[st.ID] = st.Clone()
	return nil
}

func (r *TemplateRepository) DeleteByID(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.templates, id)
	return nil
}

type ModificationRepository struct{ s *Store }

func (r *ModificationRepository) FindByTemplateID(_ context.Context, templateID string) ([]core.RecurrenceModification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []core.RecurrenceModification
	for _, m := range r.s.mods {
		if m.ScheduledTransactionID == templateID {
			out = append(out, cloneModification(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurrenceIndex < out[j].OccurrenceIndex })
	return out, nil
}

func (r *ModificationRepository) FindByTemplateIDAndIndex(_ context.Context, templateID string, index int) (*core.RecurrenceModification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.mods {
		if m.ScheduledTransactionID == templateID && m.OccurrenceIndex == index {
			c := cloneModification(m)
			return &c, nil
		}
	}
	return nil, nil
}

// Persist upserts by id. A second record for the same (template, index)
// under a different id is rejected.
func (r *ModificationRepository) Persist(_ context.Context, m core.RecurrenceModification) error {
	if m.ID == "" {
		return fmt.Errorf("modification id is required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.mods {
		if id != m.ID && other.ScheduledTransactionID == m.ScheduledTransactionID && other.OccurrenceIndex == m.OccurrenceIndex {
			return fmt.Errorf("duplicate modification for %s occurrence %d", m.ScheduledTransactionID, m.OccurrenceIndex)
		}
	}
	r.s.mods[m.ID] = cloneModification(m)
	return nil
}

func (r *ModificationRepository) DeleteByID(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.mods, id)
	return nil
}

func (r *ModificationRepository) DeleteByTemplateID(_ context.Context, templateID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.mods {
		if m.ScheduledTransactionID == templateID {
			delete(r.s.mods, id)
		}
	}
	return nil
}

// Count returns the number of stored modifications.
func (r *ModificationRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.mods)
}

func cloneModification(m core.RecurrenceModification) core.RecurrenceModification {
	out := m
	if m.Date != nil {
		d := *m.Date
		out.Date = &d
	}
	if m.OriginSplits != nil {
		out.OriginSplits = append([]core.Split(nil), m.OriginSplits...)
	}
	if m.DestinationSplits != nil {
		out.DestinationSplits = append([]core.Split(nil), m.DestinationSplits...)
	}
	return out
}
