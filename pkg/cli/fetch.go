package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/worktime/pkg/cli/config"
	"github.com/secmon-lab/worktime/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdFetch() *cli.Command {
	var (
		serverCfg    config.Server
		firestoreCfg config.Firestore
		fetchCfg     config.Fetch
		jiraCfg      config.Jira
		tmetricCfg   config.TMetric
	)

	flags := joinFlags(
		fetchCfg.Flags(false),
		firestoreCfg.Flags(),
		jiraCfg.Flags(),
		tmetricCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "timezone",
				Usage:       "IANA time zone days are cut in (default: local)",
				Category:    "Fetch",
				Sources:     cli.EnvVars("WORKTIME_TIMEZONE"),
				Destination: &serverCfg.Timezone,
			},
		},
	)

	return &cli.Command{
		Name:  "fetch",
		Usage: "Import JIRA tickets and TMetric time entries of the last days",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			loc, err := serverCfg.Location()
			if err != nil {
				return err
			}

			fetchers, err := buildFetchers(&jiraCfg, &tmetricCfg, loc)
			if err != nil {
				return err
			}

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			start, end := usecase.FetchRange(time.Now().In(loc), fetchCfg.Days)
			logger.Info("Fetching",
				slog.Time("start", start),
				slog.Time("end", end),
				slog.Any("jira", jiraCfg),
				slog.Any("tmetric", tmetricCfg),
			)

			if err := usecase.NewFetch(usecase.NewIngest(repo), fetchers...).Run(ctx, start, end); err != nil {
				return err
			}

			logger.Info("Fetch complete")
			return nil
		},
	}
}
