package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/worktime/pkg/domain/model"
)

// Ingester receives scraped records
type Ingester interface {
	InsertIssues(ctx context.Context, issues []model.Issue) error
	InsertTimes(ctx context.Context, times []model.TimeRecord) error
}

// Fetcher scrapes one upstream system for the range [start, end] and hands
// the records to the ingester
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, ingest Ingester, start, end time.Time) error
}
