package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/cli/config"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/service/chart"
	"github.com/secmon-lab/worktime/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdChart() *cli.Command {
	var (
		clientCfg config.Client
		userID    int64
		team      string
		output    string
		annotate  bool
		width     int
		height    int
	)

	flags := joinFlags(
		clientCfg.Flags(),
		[]cli.Flag{
			&cli.Int64Flag{
				Name:        "userid",
				Usage:       "Chart the time of this user",
				Destination: &userID,
			},
			&cli.StringFlag{
				Name:        "team",
				Usage:       "Chart the time of this team",
				Destination: &team,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output file; the extension selects the format (.svg, .png, .html)",
				Value:       "chart.svg",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "annotate",
				Usage:       "Append the bug share to each month label",
				Destination: &annotate,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "Chart width in pixels",
				Value:       model.DefaultChartWidth,
				Destination: &width,
			},
			&cli.IntFlag{
				Name:        "height",
				Usage:       "Chart height in pixels",
				Value:       model.DefaultChartHeight,
				Destination: &height,
			},
		},
	)

	return &cli.Command{
		Name:  "chart",
		Usage: "Draw the monthly chart of a user or team fetched from a report server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if (userID != 0) == (team != "") {
				return goerr.New("exactly one of --userid or --team is required",
					goerr.V("userid", userID),
					goerr.V("team", team))
			}

			client, err := clientCfg.Configure()
			if err != nil {
				return err
			}

			sink, err := chart.NewFileSink(output, chart.NewRenderer())
			if err != nil {
				return err
			}

			// The sink already shows a message on failure; the error is kept
			// for the exit status.
			var selectErr error
			dashboard := usecase.NewDashboard(client, sink,
				usecase.WithRenderOptions(model.RenderOptions{Width: width, Height: height}),
				usecase.WithBugPercent(annotate),
				usecase.WithErrorHandler(func(ctx context.Context, err error) {
					selectErr = err
				}),
			)

			users := usecase.NewSelector[types.UserID]()
			teams := usecase.NewSelector[types.TeamName]()
			dashboard.Bind(users, teams)

			logger.Info("Drawing chart",
				slog.Any("client", clientCfg),
				slog.Int64("userid", userID),
				slog.String("team", team),
				slog.String("output", sink.Path()),
			)

			if userID != 0 {
				users.Select(ctx, types.UserID(userID))
			} else {
				teams.Select(ctx, types.TeamName(team))
			}

			if selectErr != nil {
				return goerr.Wrap(selectErr, "failed to draw chart", goerr.V("output", sink.Path()))
			}

			logger.Info("Chart written", slog.String("output", sink.Path()))
			return nil
		},
	}
}
