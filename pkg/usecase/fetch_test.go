package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/repository"
	"github.com/secmon-lab/worktime/pkg/usecase"
)

type fakeFetcher struct {
	name  string
	calls *[]string
	err   error
	fetch func(ctx context.Context, ingest interfaces.Ingester) error
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context, ingest interfaces.Ingester, start, end time.Time) error {
	*f.calls = append(*f.calls, f.name)
	if f.err != nil {
		return f.err
	}
	if f.fetch != nil {
		return f.fetch(ctx, ingest)
	}
	return nil
}

func TestFetch_RunInOrder(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	var calls []string

	jira := &fakeFetcher{name: "jira", calls: &calls, fetch: func(ctx context.Context, ingest interfaces.Ingester) error {
		return ingest.InsertIssues(ctx, []model.Issue{{
			System: types.SystemTypeJira, SystemID: "PRJ-1", Title: "Fix", Type: types.TicketTypeBug,
		}})
	}}
	tmetric := &fakeFetcher{name: "tmetric", calls: &calls, fetch: func(ctx context.Context, ingest interfaces.Ingester) error {
		start := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
		return ingest.InsertTimes(ctx, []model.TimeRecord{{
			System: types.SystemTypeTMetric, Email: "dev@example.com", TaskTitle: "Fix", Start: start, End: start.Add(time.Hour),
		}})
	}}

	uc := usecase.NewFetch(usecase.NewIngest(repo), jira, tmetric)
	gt.NoError(t, uc.Run(ctx, time.Time{}, time.Now())).Required()
	gt.Equal(t, calls, []string{"jira", "tmetric"})

	entries, err := repo.ListTimeEntries(ctx, time.Time{}, nil)
	gt.NoError(t, err).Required()
	gt.A(t, entries).Length(1)
	gt.Equal(t, entries[0].TicketID, types.TicketID(1))
}

func TestFetch_StopsAtFirstError(t *testing.T) {
	var calls []string
	failing := &fakeFetcher{name: "jira", calls: &calls, err: errors.New("unauthorized")}
	next := &fakeFetcher{name: "tmetric", calls: &calls}

	uc := usecase.NewFetch(usecase.NewIngest(repository.NewMemory()), failing, next)
	err := uc.Run(context.Background(), time.Time{}, time.Now())
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("fetch failed")
	gt.Equal(t, calls, []string{"jira"})
}

func TestFetchRange(t *testing.T) {
	loc := time.FixedZone("test", 9*60*60)
	now := time.Date(2024, 3, 10, 15, 4, 5, 0, loc)

	start, end := usecase.FetchRange(now, 7)
	gt.Equal(t, end, time.Date(2024, 3, 10, 23, 59, 59, 0, loc))
	gt.Equal(t, start, time.Date(2024, 3, 3, 23, 59, 59, 0, loc))
}
