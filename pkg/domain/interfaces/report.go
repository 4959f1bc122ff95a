package interfaces

import (
	"context"
	"io"

	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// ReportSource retrieves monthly reports. Errors are tagged with
// model.ErrTagNetwork, model.ErrTagDecode or model.ErrTagEmptyReport.
type ReportSource interface {
	FetchUser(ctx context.Context, userID types.UserID) (*model.MonthlyReport, error)
	FetchTeam(ctx context.Context, team types.TeamName) (*model.MonthlyReport, error)
}

// ChartRenderer draws chart series in a given format
type ChartRenderer interface {
	Render(w io.Writer, series *model.ChartSeries, opts model.RenderOptions, format model.ChartFormat) error
}

// ChartSink is a display target whose content is replaced on every call
type ChartSink interface {
	Show(ctx context.Context, series *model.ChartSeries, opts model.RenderOptions) error
	ShowError(ctx context.Context, message string) error
}

// Report builds monthly reports from the store
type Report interface {
	MonthlyForUser(ctx context.Context, userID types.UserID) (*model.MonthlyReport, error)
	MonthlyForTeam(ctx context.Context, team types.TeamName) (*model.MonthlyReport, error)
	Users(ctx context.Context) ([]*model.User, error)
	Teams(ctx context.Context) ([]model.TeamSummary, error)
}
