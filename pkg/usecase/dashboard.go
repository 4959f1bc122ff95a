package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/utils/apperr"
)

// Selector delivers the identifier picked in a selection control to its
// subscribers
type Selector[T any] struct {
	mu          sync.Mutex
	subscribers []func(ctx context.Context, value T)
}

// NewSelector creates a selector with no subscribers
func NewSelector[T any]() *Selector[T] {
	return &Selector[T]{}
}

// Subscribe registers fn to be called on every selection
func (s *Selector[T]) Subscribe(fn func(ctx context.Context, value T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Select notifies subscribers in registration order
func (s *Selector[T]) Select(ctx context.Context, value T) {
	s.mu.Lock()
	subscribers := make([]func(context.Context, T), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(ctx, value)
	}
}

// DashboardOption is a functional option for configuring Dashboard
type DashboardOption func(*Dashboard)

// WithRenderOptions sets the chart size
func WithRenderOptions(opts model.RenderOptions) DashboardOption {
	return func(d *Dashboard) {
		d.renderOpts = opts.WithDefaults()
	}
}

// WithBugPercent enables the bug share suffix on month labels
func WithBugPercent(enabled bool) DashboardOption {
	return func(d *Dashboard) {
		d.annotate = enabled
	}
}

// WithErrorHandler sets what happens to errors of selections made through
// bound selectors. The default logs them.
func WithErrorHandler(fn func(ctx context.Context, err error)) DashboardOption {
	return func(d *Dashboard) {
		d.onError = fn
	}
}

// Dashboard shows the monthly chart of whatever user or team was selected
// last. Every selection fetches, transforms and replaces the sink's content.
type Dashboard struct {
	source      interfaces.ReportSource
	sink        interfaces.ChartSink
	transformer *ReportTransformer
	renderOpts  model.RenderOptions
	annotate    bool
	onError     func(ctx context.Context, err error)
}

// NewDashboard creates a new Dashboard
func NewDashboard(source interfaces.ReportSource, sink interfaces.ChartSink, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		source:      source,
		sink:        sink,
		transformer: NewReportTransformer(),
		renderOpts:  model.DefaultRenderOptions(),
		onError:     apperr.Handle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Bind subscribes the dashboard to user and team selectors. Either may be nil.
func (d *Dashboard) Bind(users *Selector[types.UserID], teams *Selector[types.TeamName]) {
	if users != nil {
		users.Subscribe(func(ctx context.Context, id types.UserID) {
			if err := d.ShowUser(ctx, id); err != nil {
				d.onError(ctx, err)
			}
		})
	}
	if teams != nil {
		teams.Subscribe(func(ctx context.Context, team types.TeamName) {
			if err := d.ShowTeam(ctx, team); err != nil {
				d.onError(ctx, err)
			}
		})
	}
}

// ShowUser renders the chart of one user
func (d *Dashboard) ShowUser(ctx context.Context, id types.UserID) error {
	ctxlog.From(ctx).Debug("User selected", "userID", id)
	report, err := d.source.FetchUser(ctx, id)
	return d.show(ctx, report, err)
}

// ShowTeam renders the chart of one team
func (d *Dashboard) ShowTeam(ctx context.Context, team types.TeamName) error {
	ctxlog.From(ctx).Debug("Team selected", "team", team)
	report, err := d.source.FetchTeam(ctx, team)
	return d.show(ctx, report, err)
}

func (d *Dashboard) show(ctx context.Context, report *model.MonthlyReport, fetchErr error) error {
	if fetchErr != nil {
		if err := d.sink.ShowError(ctx, apperr.UserMessage(fetchErr)); err != nil {
			apperr.Handle(ctx, err)
		}
		return fetchErr
	}

	series := d.transformer.Transform(report, d.annotate)
	return d.sink.Show(ctx, series, d.renderOpts)
}
