package backend

import (
	"context"

	"ricorrenze/internal/cache"
	"ricorrenze/internal/services"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Backend bundles the repositories the services run on.
type Backend struct {
	Type          BackendType
	Templates     services.ScheduledTransactionRepository
	Modifications services.RecurrenceModificationRepository
	// Caches holds the template cache so commands can run its cleanup loop.
	Caches *cache.Manager
	// Ready reports whether the storage is reachable.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (b *Backend) Close() error {
	if b.Caches != nil {
		b.Caches.Stop()
	}
	if b.Cleanup == nil {
		return nil
	}
	return b.Cleanup()
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
