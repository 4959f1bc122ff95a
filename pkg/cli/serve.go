package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/cli/config"
	controller "github.com/secmon-lab/worktime/pkg/controller/http"
	"github.com/secmon-lab/worktime/pkg/usecase"
	"github.com/secmon-lab/worktime/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		firestoreCfg config.Firestore
		teamsCfg     config.Teams
		fetchCfg     config.Fetch
		jiraCfg      config.Jira
		tmetricCfg   config.TMetric
	)

	flags := joinFlags(
		serverCfg.Flags(),
		firestoreCfg.Flags(),
		teamsCfg.Flags(),
		fetchCfg.Flags(true),
		jiraCfg.Flags(),
		tmetricCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start the report server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting worktime server",
				slog.Any("server", serverCfg),
				slog.Any("firestore", firestoreCfg),
				slog.Any("teams", teamsCfg),
				slog.Any("fetch", fetchCfg),
			)

			loc, err := serverCfg.Location()
			if err != nil {
				return err
			}
			history, err := serverCfg.History()
			if err != nil {
				return err
			}

			teams, err := teamsCfg.Configure()
			if err != nil {
				return err
			}

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			reportUC := usecase.NewReport(repo, teams, usecase.NewReportConfig(
				usecase.WithHistory(history),
				usecase.WithLocation(loc),
			))

			opts := []controller.Option{
				controller.WithChartSize(serverCfg.ChartSize()),
			}
			if serverCfg.Metrics {
				opts = append(opts, controller.WithMetrics(controller.NewMetrics()))
			}

			server, err := controller.NewServer(ctx, serverCfg.Addr, reportUC, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			runCtx, stop := context.WithCancel(ctx)
			defer stop()

			if fetchCfg.Enabled() {
				fetchers, err := buildFetchers(&jiraCfg, &tmetricCfg, loc)
				if err != nil {
					return goerr.Wrap(err, "fetch is enabled but no source can be used")
				}
				fetchUC := usecase.NewFetch(usecase.NewIngest(repo), fetchers...)
				runFetch := func(ctx context.Context) error {
					start, end := usecase.FetchRange(time.Now().In(loc), fetchCfg.Days)
					return fetchUC.Run(ctx, start, end)
				}

				switch {
				case fetchCfg.IsPeriodic():
					// Every also runs immediately, so on-start is implied
					go async.Every(runCtx, fetchCfg.Interval, runFetch)
					logger.Info("Periodic fetch enabled", slog.Duration("interval", fetchCfg.Interval))
				case fetchCfg.OnStart:
					async.Dispatch(runCtx, runFetch)
					logger.Info("Startup fetch dispatched")
				}
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
					stop()
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-runCtx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}
			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
