package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/service/tmetric"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// TMetric holds TMetric configuration
type TMetric struct {
	BaseURL     string
	AccountID   string
	EmailSuffix string
	CookiesFile string
	Concurrency int
}

// Flags returns CLI flags for TMetric configuration
func (t *TMetric) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tmetric-url",
			Usage:       "TMetric base URL",
			Category:    "TMetric",
			Value:       tmetric.DefaultBaseURL,
			Sources:     cli.EnvVars("WORKTIME_TMETRIC_URL"),
			Destination: &t.BaseURL,
		},
		&cli.StringFlag{
			Name:        "tmetric-account",
			Usage:       "TMetric account ID",
			Category:    "TMetric",
			Sources:     cli.EnvVars("WORKTIME_TMETRIC_ACCOUNT"),
			Destination: &t.AccountID,
		},
		&cli.StringFlag{
			Name:        "tmetric-email-suffix",
			Usage:       "Suffix appended to TMetric user names to form e-mails (e.g. @example.com)",
			Category:    "TMetric",
			Sources:     cli.EnvVars("WORKTIME_TMETRIC_EMAIL_SUFFIX"),
			Destination: &t.EmailSuffix,
		},
		&cli.StringFlag{
			Name:        "tmetric-cookies",
			Usage:       "Path to YAML file mapping cookie names to values of a logged-in session",
			Category:    "TMetric",
			Sources:     cli.EnvVars("WORKTIME_TMETRIC_COOKIES"),
			Destination: &t.CookiesFile,
		},
		&cli.IntFlag{
			Name:        "tmetric-concurrency",
			Usage:       "Number of days downloaded in parallel",
			Category:    "TMetric",
			Value:       4,
			Sources:     cli.EnvVars("WORKTIME_TMETRIC_CONCURRENCY"),
			Destination: &t.Concurrency,
		},
	}
}

// Configure creates the TMetric fetcher
func (t *TMetric) Configure(loc *time.Location) (*tmetric.Fetcher, error) {
	if !t.IsConfigured() {
		return nil, goerr.New("TMetric is not configured. Set --tmetric-account and --tmetric-cookies")
	}

	cookies, err := LoadCookiesFromFile(t.CookiesFile)
	if err != nil {
		return nil, err
	}

	return tmetric.New(tmetric.Config{
		BaseURL:     t.BaseURL,
		AccountID:   t.AccountID,
		EmailSuffix: t.EmailSuffix,
		Cookies:     cookies,
	},
		tmetric.WithConcurrency(t.Concurrency),
		tmetric.WithLocation(loc),
	)
}

// IsConfigured checks if TMetric is properly configured
func (t *TMetric) IsConfigured() bool {
	return t.AccountID != "" && t.CookiesFile != ""
}

// LogValue returns structured log value
func (t TMetric) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", t.BaseURL),
		slog.String("account", t.AccountID),
		slog.String("email_suffix", t.EmailSuffix),
		slog.String("cookies_file", t.CookiesFile),
		slog.Int("concurrency", t.Concurrency),
	)
}

// LoadCookiesFromFile reads a flat YAML mapping of cookie name to value
func LoadCookiesFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read cookies file", goerr.V("path", path))
	}

	var cookies map[string]string
	if err := yaml.Unmarshal(data, &cookies); err != nil {
		return nil, goerr.Wrap(err, "failed to parse cookies file", goerr.V("path", path))
	}
	if len(cookies) == 0 {
		return nil, goerr.New("cookies file has no cookies", goerr.V("path", path))
	}
	return cookies, nil
}
