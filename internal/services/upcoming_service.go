package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"ricorrenze/internal/core"
)

// UpcomingService finds the next pending occurrence of every template.
type UpcomingService struct {
	templates   ScheduledTransactionRepository
	finder      *NextPendingOccurrenceFinder
	concurrency int
}

func NewUpcomingService(templates ScheduledTransactionRepository, modifications RecurrenceModificationRepository, concurrency int) *UpcomingService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &UpcomingService{
		templates:   templates,
		finder:      NewNextPendingOccurrenceFinder(templates, modifications),
		concurrency: concurrency,
	}
}

// NextPendingForAll returns, sorted by date, the next pending occurrence of
// each template that falls on or before horizon. The first failing lookup
// cancels the scan and is returned.
func (s *UpcomingService) NextPendingForAll(ctx context.Context, horizon core.Date) ([]core.ItemRecurrenceInfo, error) {
	templates, err := s.templates.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scheduled transactions: %w", err)
	}

	var (
		mu  sync.Mutex
		out []core.ItemRecurrenceInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, st := range templates {
		id := st.ID
		g.Go(func() error {
			info, err := s.finder.Execute(gctx, id)
			if err != nil {
				return err
			}
			if info == nil || info.Date.After(horizon) {
				return nil
			}
			mu.Lock()
			out = append(out, *info)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ScheduledTransactionID < out[j].ScheduledTransactionID
	})

	slog.InfoContext(ctx, "Computed upcoming occurrences",
		"templates", len(templates),
		"upcoming", len(out),
		"horizon", horizon.String())
	return out, nil
}
