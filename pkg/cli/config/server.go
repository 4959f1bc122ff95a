package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr        string
	ChartWidth  int
	ChartHeight int
	Metrics     bool
	HistoryDays int
	Timezone    string
}

// Flags returns CLI flags for Server configuration
func (s *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Sources:     cli.EnvVars("WORKTIME_ADDR"),
			Destination: &s.Addr,
		},
		&cli.IntFlag{
			Name:        "chart-width",
			Usage:       "Default chart width in pixels",
			Category:    "Chart",
			Value:       model.DefaultChartWidth,
			Sources:     cli.EnvVars("WORKTIME_CHART_WIDTH"),
			Destination: &s.ChartWidth,
		},
		&cli.IntFlag{
			Name:        "chart-height",
			Usage:       "Default chart height in pixels",
			Category:    "Chart",
			Value:       model.DefaultChartHeight,
			Sources:     cli.EnvVars("WORKTIME_CHART_HEIGHT"),
			Destination: &s.ChartHeight,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Serve Prometheus metrics on /metrics",
			Value:       true,
			Sources:     cli.EnvVars("WORKTIME_METRICS"),
			Destination: &s.Metrics,
		},
		&cli.IntFlag{
			Name:        "history-days",
			Usage:       "How many days back monthly reports look",
			Category:    "Report",
			Value:       365,
			Sources:     cli.EnvVars("WORKTIME_HISTORY_DAYS"),
			Destination: &s.HistoryDays,
		},
		&cli.StringFlag{
			Name:        "timezone",
			Usage:       "IANA time zone months and days are cut in (default: local)",
			Category:    "Report",
			Sources:     cli.EnvVars("WORKTIME_TIMEZONE"),
			Destination: &s.Timezone,
		},
	}
}

// Location resolves the configured time zone
func (s *Server) Location() (*time.Location, error) {
	return loadLocation(s.Timezone)
}

// History returns the report history window
func (s *Server) History() (time.Duration, error) {
	if s.HistoryDays <= 0 {
		return 0, goerr.New("history days must be positive", goerr.V("history_days", s.HistoryDays))
	}
	return time.Duration(s.HistoryDays) * 24 * time.Hour, nil
}

// ChartSize returns the default chart size
func (s *Server) ChartSize() model.RenderOptions {
	return model.RenderOptions{Width: s.ChartWidth, Height: s.ChartHeight}.WithDefaults()
}

// LogValue returns structured log value
func (s Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", s.Addr),
		slog.Int("chart_width", s.ChartWidth),
		slog.Int("chart_height", s.ChartHeight),
		slog.Bool("metrics", s.Metrics),
		slog.Int("history_days", s.HistoryDays),
		slog.String("timezone", s.Timezone),
	)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid time zone", goerr.V("timezone", name))
	}
	return loc, nil
}
