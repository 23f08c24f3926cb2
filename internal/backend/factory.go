package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ricorrenze/internal/amqp"
	"ricorrenze/internal/cache"
	"ricorrenze/internal/config"
	"ricorrenze/internal/core"
	"ricorrenze/internal/services"
	"ricorrenze/internal/sheets"
	gsheet "ricorrenze/internal/sheets/google"
	sheetsmem "ricorrenze/internal/sheets/memory"
	"ricorrenze/internal/storage"
	"ricorrenze/internal/storage/memory"
)

// Factory builds the infrastructure the commands wire together.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend opens the configured storage. Templates are served through
// an LRU cache registered with the returned cache manager.
func (f *Factory) CreateBackend(cfg *config.Config) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var (
		b   *Backend
		raw storage.TemplateStore
	)
	switch bt {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		raw = repo
		b = &Backend{
			Type:          bt,
			Modifications: repo.Modifications(),
			Ready:         repo.Ping,
			Cleanup:       repo.Close,
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		store := memory.New()
		raw = store.Templates()
		b = &Backend{
			Type:          bt,
			Modifications: store.Modifications(),
		}
		f.logger.Info("Initialized memory backend")
	}

	lru := cache.NewLRUCache[core.ScheduledTransaction](cfg.TemplateCacheSize, cfg.TemplateCacheTTL)
	b.Templates = storage.NewCachedTemplateRepository(raw, lru)
	b.Caches = cache.NewManager()
	b.Caches.Register("templates", lru)
	return b, nil
}

// CreatePublisher connects to the broker when AMQP_URL is set. Without it
// the returned publisher is nil and services skip event publishing.
func (f *Factory) CreatePublisher(cfg *config.Config) (services.OccurrenceEventPublisher, CleanupFunc, error) {
	if cfg.AMQPURL == "" {
		f.logger.Info("AMQP not configured, occurrence events disabled")
		return nil, func() error { return nil }, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client.Close, nil
}

// CreateExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory one otherwise.
func (f *Factory) CreateExporter(ctx context.Context, cfg *config.Config) (sheets.Exporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		f.logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting occurrences in memory only")
		return sheetsmem.New(), nil
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets exporter", "sheet", cfg.GoogleSheetName)
	return client, nil
}
