package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ricorrenze/internal/config"
	"ricorrenze/internal/core"
	sheetsmem "ricorrenze/internal/sheets/memory"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		DataBackend:       backend,
		TemplateCacheSize: 8,
		TemplateCacheTTL:  time.Minute,
	}
}

func oneTimeTemplate(t *testing.T) core.ScheduledTransaction {
	t.Helper()
	p, err := core.NewOneTimePattern(core.NewDate(2024, 3, 1))
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	return core.ScheduledTransaction{
		ID:           "tpl-1",
		Name:         "Insurance",
		CategoryID:   "car",
		Operation:    core.Expense,
		Amount:       core.Money{Cents: 50000},
		OriginSplits: []core.Split{{AccountID: "checking", Amount: core.Money{Cents: 50000}}},
		Recurrence:   p,
	}
}

func TestCreateBackend(t *testing.T) {
	sqliteCfg := testConfig("sqlite")
	sqliteCfg.SQLiteDBPath = filepath.Join(t.TempDir(), "ricorrenze.db")

	for _, cfg := range []*config.Config{testConfig("memory"), sqliteCfg} {
		t.Run(cfg.DataBackend, func(t *testing.T) {
			ctx := context.Background()
			b, err := NewFactory(nil).CreateBackend(cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer b.Close()

			if b.Type.String() != cfg.DataBackend {
				t.Errorf("Type = %s", b.Type)
			}
			if err := b.Templates.Persist(ctx, oneTimeTemplate(t)); err != nil {
				t.Fatalf("persist: %v", err)
			}
			got, err := b.Templates.FindByID(ctx, "tpl-1")
			if err != nil || got.Name != "Insurance" {
				t.Fatalf("FindByID() = %+v, %v", got, err)
			}
			if _, err := b.Templates.FindByID(ctx, "missing"); !errors.Is(err, core.ErrTemplateNotFound) {
				t.Errorf("missing template error = %v", err)
			}
			if b.Caches.CleanNow(ctx) != 0 {
				t.Error("nothing should have expired yet")
			}
			if b.Ready != nil {
				if err := b.Ready(ctx); err != nil {
					t.Errorf("Ready() error = %v", err)
				}
			}
		})
	}
}

func TestCreateBackendRejectsUnknownType(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(testConfig("sheets")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewFactory(nil).CreateBackend(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestCreatePublisherDisabledWithoutURL(t *testing.T) {
	pub, cleanup, err := NewFactory(nil).CreatePublisher(testConfig("memory"))
	if err != nil {
		t.Fatalf("CreatePublisher() error = %v", err)
	}
	if pub != nil {
		t.Errorf("publisher = %v, want nil", pub)
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup() error = %v", err)
	}
}

func TestCreateExporterFallsBackToMemory(t *testing.T) {
	exp, err := NewFactory(nil).CreateExporter(context.Background(), testConfig("memory"))
	if err != nil {
		t.Fatalf("CreateExporter() error = %v", err)
	}
	if _, ok := exp.(*sheetsmem.Store); !ok {
		t.Errorf("exporter = %T, want *memory.Store", exp)
	}
}
