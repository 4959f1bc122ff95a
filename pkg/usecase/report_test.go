package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/repository"
	"github.com/secmon-lab/worktime/pkg/usecase"
)

var reportNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type reportFixture struct {
	repo  interfaces.Repository
	alice *model.User
	bob   *model.User
}

func setupReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemory()

	alice, err := repo.CreateUser(ctx, "alice@example.com")
	gt.NoError(t, err).Required()
	bob, err := repo.CreateUser(ctx, "bob@example.com")
	gt.NoError(t, err).Required()

	feat, err := repo.PutTicket(ctx, &model.Ticket{
		System: types.SystemTypeJira, SystemID: "1", Title: "feature", Type: types.TicketTypeFeature,
	})
	gt.NoError(t, err).Required()
	bug, err := repo.PutTicket(ctx, &model.Ticket{
		System: types.SystemTypeJira, SystemID: "2", Title: "bug", Type: types.TicketTypeBug,
	})
	gt.NoError(t, err).Required()
	bau, err := repo.PutTicket(ctx, &model.Ticket{
		System: types.SystemTypeJira, SystemID: "3", Title: "bau", Type: types.TicketTypeBAU,
	})
	gt.NoError(t, err).Required()

	put := func(user types.UserID, id string, ticket types.TicketID, start time.Time, d time.Duration) {
		gt.NoError(t, repo.PutTimeEntry(ctx, &model.TimeEntry{
			UserID:   user,
			System:   types.SystemTypeTMetric,
			SystemID: types.SystemID(id),
			Start:    start,
			End:      start.Add(d),
			TicketID: ticket,
		}))
	}

	jan := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 1, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 5, 1, 0, 0, 0, time.UTC)

	put(alice.ID, "a1", feat, jan, 2*time.Hour)
	put(alice.ID, "a2", bug, jan, time.Hour)
	put(alice.ID, "a3", feat, feb, 30*time.Minute)
	put(bob.ID, "b1", bug, feb, 3*time.Hour)
	put(bob.ID, "b2", bau, dec, 4*time.Hour)
	// outside the history window
	put(bob.ID, "b3", bug, time.Date(2022, 1, 1, 1, 0, 0, 0, time.UTC), time.Hour)

	return &reportFixture{repo: repo, alice: alice, bob: bob}
}

func newTestReport(repo interfaces.Repository, teams *model.TeamsConfig) *usecase.Report {
	return usecase.NewReport(repo, teams, usecase.NewReportConfig(
		usecase.WithLocation(time.UTC),
		usecase.WithClock(func() time.Time { return reportNow }),
	))
}

func TestReport_MonthlyForUser(t *testing.T) {
	f := setupReportFixture(t)
	report, err := newTestReport(f.repo, nil).MonthlyForUser(context.Background(), f.alice.ID)
	gt.NoError(t, err).Required()

	gt.A(t, report.Months).Length(2)
	gt.Equal(t, report.Months[0], model.MonthlyRecord{
		Year: 2024, Month: "January", FeatureSeconds: 7200, BugSeconds: 3600,
	})
	gt.Equal(t, report.Months[1], model.MonthlyRecord{
		Year: 2024, Month: "February", FeatureSeconds: 1800, BugSeconds: 0,
	})
}

func TestReport_Monthly_AllUsersAscending(t *testing.T) {
	f := setupReportFixture(t)
	report, err := newTestReport(f.repo, nil).Monthly(context.Background(), nil)
	gt.NoError(t, err).Required()

	gt.A(t, report.Months).Length(3)
	// bau time opens December without adding to either series
	gt.Equal(t, report.Months[0], model.MonthlyRecord{Year: 2023, Month: "December"})
	gt.Equal(t, report.Months[1].Month, "January")
	gt.Equal(t, report.Months[2], model.MonthlyRecord{
		Year: 2024, Month: "February", FeatureSeconds: 1800, BugSeconds: 3*3600,
	})
}

func TestReport_Monthly_HistoryWindow(t *testing.T) {
	f := setupReportFixture(t)
	r := usecase.NewReport(f.repo, nil, usecase.NewReportConfig(
		usecase.WithLocation(time.UTC),
		usecase.WithClock(func() time.Time { return reportNow }),
		usecase.WithHistory(70*24*time.Hour),
	))

	report, err := r.Monthly(context.Background(), nil)
	gt.NoError(t, err).Required()
	gt.A(t, report.Months).Length(2)
	gt.Equal(t, report.Months[0].Month, "January")
}

func TestReport_Monthly_MissingTicketCountsAsOther(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemory()
	user, err := repo.CreateUser(ctx, "carol@example.com")
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.PutTimeEntry(ctx, &model.TimeEntry{
		UserID:   user.ID,
		System:   types.SystemTypeTMetric,
		SystemID: "x",
		Start:    time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC),
		TicketID: 999,
	}))

	report, err := newTestReport(repo, nil).MonthlyForUser(ctx, user.ID)
	gt.NoError(t, err).Required()
	gt.A(t, report.Months).Length(1)
	gt.Equal(t, report.Months[0], model.MonthlyRecord{Year: 2024, Month: "March"})
}

func TestReport_MonthlyForTeam(t *testing.T) {
	f := setupReportFixture(t)
	teams := &model.TeamsConfig{Teams: []model.Team{
		{Name: "backend", MembersEmail: []string{"Bob@Example.com"}},
		{Name: "ghosts", MembersEmail: []string{"nobody@example.com"}},
	}}
	r := newTestReport(f.repo, teams)
	ctx := context.Background()

	t.Run("team members only", func(t *testing.T) {
		report, err := r.MonthlyForTeam(ctx, "backend")
		gt.NoError(t, err).Required()
		gt.A(t, report.Months).Length(2)
		gt.Equal(t, report.Months[1].BugSeconds, float64(3*3600))
		gt.Equal(t, report.Months[1].FeatureSeconds, float64(0))
	})

	t.Run("all teams", func(t *testing.T) {
		report, err := r.MonthlyForTeam(ctx, types.TeamAll)
		gt.NoError(t, err).Required()
		gt.A(t, report.Months).Length(2)
	})

	t.Run("team without data is empty", func(t *testing.T) {
		report, err := r.MonthlyForTeam(ctx, "ghosts")
		gt.NoError(t, err).Required()
		gt.True(t, report.IsEmpty())
	})

	t.Run("unknown team", func(t *testing.T) {
		_, err := r.MonthlyForTeam(ctx, "nope")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrTeamNotFound))
		gt.True(t, goerr.HasTag(err, model.ErrTagInvalidQuery))
	})
}

func TestReport_Teams(t *testing.T) {
	f := setupReportFixture(t)
	teams := &model.TeamsConfig{Teams: []model.Team{
		{Name: "backend", MembersEmail: []string{"bob@example.com", "nobody@example.com"}},
	}}

	summaries, err := newTestReport(f.repo, teams).Teams(context.Background())
	gt.NoError(t, err).Required()
	gt.A(t, summaries).Length(2)
	gt.Equal(t, summaries[0].Name, types.TeamAll)
	gt.Equal(t, summaries[1].Name, types.TeamName("backend"))
	gt.Equal(t, summaries[1].MembersWithNoData, []string{"nobody@example.com"})
	gt.Equal(t, summaries[1].Title(), "backend (no data for: nobody@example.com)")
}

func TestReport_Users(t *testing.T) {
	f := setupReportFixture(t)
	users, err := newTestReport(f.repo, nil).Users(context.Background())
	gt.NoError(t, err).Required()
	gt.A(t, users).Length(2)
	gt.Equal(t, users[0].Email, "alice@example.com")
}
