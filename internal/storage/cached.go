package storage

import (
	"context"
	"log/slog"

	"ricorrenze/internal/cache"
	"ricorrenze/internal/core"
)

// TemplateStore is the template side of a repository.
type TemplateStore interface {
	FindByID(ctx context.Context, id string) (*core.ScheduledTransaction, error)
	FindAll(ctx context.Context) ([]core.ScheduledTransaction, error)
	Persist(ctx context.Context, st core.ScheduledTransaction) error
	DeleteByID(ctx context.Context, id string) error
}

// CachedTemplateRepository keeps recently read templates in an LRU cache.
// Writes go through to the underlying store and invalidate the entry.
type CachedTemplateRepository struct {
	next  TemplateStore
	cache cache.Cache[core.ScheduledTransaction]
}

func NewCachedTemplateRepository(next TemplateStore, c cache.Cache[core.ScheduledTransaction]) *CachedTemplateRepository {
	return &CachedTemplateRepository{next: next, cache: c}
}

func (r *CachedTemplateRepository) FindByID(ctx context.Context, id string) (*core.ScheduledTransaction, error) {
	if st, ok := r.cache.Get(id); ok {
		c := st.Clone()
		return &c, nil
	}
	st, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(id, st.Clone())
	slog.DebugContext(ctx, "Template cached", "template_id", id, "cache_size", r.cache.Size())
	return st, nil
}

// FindAll always reads the underlying store.
func (r *CachedTemplateRepository) FindAll(ctx context.Context) ([]core.ScheduledTransaction, error) {
	return r.next.FindAll(ctx)
}

func (r *CachedTemplateRepository) Persist(ctx context.Context, st core.ScheduledTransaction) error {
	r.cache.Delete(st.ID)
	return r.next.Persist(ctx, st)
}

func (r *CachedTemplateRepository) DeleteByID(ctx context.Context, id string) error {
	r.cache.Delete(id)
	return r.next.DeleteByID(ctx, id)
}
