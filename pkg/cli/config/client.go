package config

import (
	"log/slog"
	"time"

	"github.com/secmon-lab/worktime/pkg/service/reportclient"
	"github.com/urfave/cli/v3"
)

// Client holds the report server client configuration
type Client struct {
	ServerURL string
	Timeout   time.Duration
}

// Flags returns CLI flags for Client configuration
func (c *Client) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "server-url",
			Usage:       "Base URL of the report server",
			Value:       "http://localhost:8080",
			Sources:     cli.EnvVars("WORKTIME_SERVER_URL"),
			Destination: &c.ServerURL,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Timeout of a report request",
			Value:       reportclient.DefaultTimeout,
			Sources:     cli.EnvVars("WORKTIME_TIMEOUT"),
			Destination: &c.Timeout,
		},
	}
}

// Configure creates the report client
func (c *Client) Configure() (*reportclient.Client, error) {
	return reportclient.New(c.ServerURL, reportclient.WithTimeout(c.Timeout))
}

// LogValue returns structured log value
func (c Client) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("server_url", c.ServerURL),
		slog.Duration("timeout", c.Timeout),
	)
}
