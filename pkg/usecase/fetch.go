package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
)

// Fetch runs scrapers in order
type Fetch struct {
	ingest   interfaces.Ingester
	fetchers []interfaces.Fetcher
}

// NewFetch creates a new Fetch use case. Fetchers run in the given order.
func NewFetch(ingest interfaces.Ingester, fetchers ...interfaces.Fetcher) *Fetch {
	return &Fetch{
		ingest:   ingest,
		fetchers: fetchers,
	}
}

// Run fetches [start, end] from every fetcher. It stops at the first failure:
// time entries scraped after a failed ticket scrape would all end up on
// anonymous tickets.
func (u *Fetch) Run(ctx context.Context, start, end time.Time) error {
	logger := ctxlog.From(ctx)

	for _, f := range u.fetchers {
		logger.Info("Fetching",
			slog.String("source", f.Name()),
			slog.Time("start", start),
			slog.Time("end", end),
		)
		if err := f.Fetch(ctx, u.ingest, start, end); err != nil {
			return goerr.Wrap(err, "fetch failed", goerr.V("source", f.Name()))
		}
	}

	logger.Info("Finished successfully", slog.Int("sources", len(u.fetchers)))
	return nil
}

// FetchRange returns the window covering the last days days, ending just
// before midnight tonight in now's location
func FetchRange(now time.Time, days int) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	start := end.Add(-time.Duration(days) * 24 * time.Hour)
	return start, end
}
