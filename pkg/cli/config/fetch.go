package config

import (
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
)

// Fetch holds the scraping schedule
type Fetch struct {
	Days     int
	Interval time.Duration
	OnStart  bool
}

// Flags returns CLI flags for Fetch configuration. Interval and OnStart are
// only meaningful for the server.
func (f *Fetch) Flags(withInterval bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Number of days before today to fetch",
			Category:    "Fetch",
			Value:       3,
			Sources:     cli.EnvVars("WORKTIME_FETCH_DAYS"),
			Destination: &f.Days,
		},
	}
	if withInterval {
		flags = append(flags,
			&cli.DurationFlag{
				Name:        "fetch-interval",
				Usage:       "Fetch from configured sources periodically (0 disables)",
				Category:    "Fetch",
				Sources:     cli.EnvVars("WORKTIME_FETCH_INTERVAL"),
				Destination: &f.Interval,
			},
			&cli.BoolFlag{
				Name:        "fetch-on-start",
				Usage:       "Fetch once in the background when the server starts",
				Category:    "Fetch",
				Sources:     cli.EnvVars("WORKTIME_FETCH_ON_START"),
				Destination: &f.OnStart,
			},
		)
	}
	return flags
}

// IsPeriodic reports whether the server should fetch on a schedule
func (f *Fetch) IsPeriodic() bool {
	return f.Interval > 0
}

// Enabled reports whether the server fetches at all
func (f *Fetch) Enabled() bool {
	return f.IsPeriodic() || f.OnStart
}

// LogValue returns structured log value
func (f Fetch) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("days", f.Days),
		slog.Duration("interval", f.Interval),
		slog.Bool("on_start", f.OnStart),
	)
}
