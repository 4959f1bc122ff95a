package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/usecase"
)

type fakeSource struct {
	users map[types.UserID]*model.MonthlyReport
	teams map[types.TeamName]*model.MonthlyReport
	err   error
}

func (s *fakeSource) FetchUser(ctx context.Context, id types.UserID) (*model.MonthlyReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

func (s *fakeSource) FetchTeam(ctx context.Context, team types.TeamName) (*model.MonthlyReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.teams[team], nil
}

// recordingSink keeps only the latest content, like a page element
type recordingSink struct {
	series  *model.ChartSeries
	opts    model.RenderOptions
	message string
	shows   int
}

func (s *recordingSink) Show(ctx context.Context, series *model.ChartSeries, opts model.RenderOptions) error {
	s.series, s.opts, s.message = series, opts, ""
	s.shows++
	return nil
}

func (s *recordingSink) ShowError(ctx context.Context, message string) error {
	s.series, s.message = nil, message
	s.shows++
	return nil
}

func TestSelector_SubscribersInOrder(t *testing.T) {
	sel := usecase.NewSelector[types.UserID]()
	var got []string
	sel.Subscribe(func(ctx context.Context, id types.UserID) { got = append(got, "first:"+id.String()) })
	sel.Subscribe(func(ctx context.Context, id types.UserID) { got = append(got, "second:"+id.String()) })

	sel.Select(context.Background(), 7)
	gt.Equal(t, got, []string{"first:7", "second:7"})
}

func TestDashboard_ReplacesContentOnEachSelection(t *testing.T) {
	source := &fakeSource{
		users: map[types.UserID]*model.MonthlyReport{
			1: {Months: []model.MonthlyRecord{{Month: "Jan", FeatureSeconds: 7200, BugSeconds: 3600}}},
		},
		teams: map[types.TeamName]*model.MonthlyReport{
			"backend": {Months: []model.MonthlyRecord{
				{Month: "Feb", FeatureSeconds: 3600},
				{Month: "Mar", BugSeconds: 1800},
			}},
		},
	}
	sink := &recordingSink{}
	dash := usecase.NewDashboard(source, sink,
		usecase.WithBugPercent(true),
		usecase.WithRenderOptions(model.RenderOptions{Width: 800}),
	)

	users := usecase.NewSelector[types.UserID]()
	teams := usecase.NewSelector[types.TeamName]()
	dash.Bind(users, teams)
	ctx := context.Background()

	users.Select(ctx, 1)
	gt.V(t, sink.series).NotNil()
	gt.Equal(t, sink.series.Labels, []string{"Jan (33%)"})
	gt.Equal(t, sink.opts, model.RenderOptions{Width: 800, Height: 300})

	teams.Select(ctx, "backend")
	gt.Equal(t, sink.series.Labels, []string{"Feb (0%)", "Mar (100%)"})
	gt.Equal(t, sink.series.FeatureHours(), []float64{1, 0})
	gt.Equal(t, sink.series.BugHours(), []float64{0, 0.5})
	gt.Equal(t, sink.shows, 2)
}

func TestDashboard_ErrorReplacesChartWithMessage(t *testing.T) {
	source := &fakeSource{users: map[types.UserID]*model.MonthlyReport{
		1: {Months: []model.MonthlyRecord{{Month: "Jan", FeatureSeconds: 3600}}},
	}}
	sink := &recordingSink{}
	dash := usecase.NewDashboard(source, sink)
	ctx := context.Background()

	gt.NoError(t, dash.ShowUser(ctx, 1)).Required()
	gt.Equal(t, sink.series.Labels, []string{"Jan"})

	source.err = goerr.New("connection refused", goerr.T(model.ErrTagNetwork))
	err := dash.ShowUser(ctx, 1)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagNetwork))
	gt.V(t, sink.series).Nil()
	gt.S(t, sink.message).Contains("Could not reach")
}

func TestDashboard_EmptyReportMessage(t *testing.T) {
	source := &fakeSource{err: goerr.New("no months", goerr.T(model.ErrTagEmptyReport))}
	sink := &recordingSink{}
	dash := usecase.NewDashboard(source, sink)

	err := dash.ShowTeam(context.Background(), "backend")
	gt.Error(t, err)
	gt.S(t, sink.message).Contains("No time has been recorded")
}

func TestDashboard_BoundSelectorReportsErrors(t *testing.T) {
	source := &fakeSource{err: goerr.New("boom", goerr.T(model.ErrTagDecode))}
	sink := &recordingSink{}
	var got []error
	dash := usecase.NewDashboard(source, sink, usecase.WithErrorHandler(func(ctx context.Context, err error) {
		got = append(got, err)
	}))

	users := usecase.NewSelector[types.UserID]()
	dash.Bind(users, nil)
	users.Select(context.Background(), 3)

	gt.A(t, got).Length(1)
	gt.True(t, goerr.HasTag(got[0], model.ErrTagDecode))
	gt.S(t, sink.message).Contains("could not be read")
}
