package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/service/jira"
	"github.com/urfave/cli/v3"
)

// Jira holds JIRA Cloud configuration
type Jira struct {
	BaseURL          string
	Username         string
	Token            string
	StoryPointsField string
}

// Flags returns CLI flags for Jira configuration
func (j *Jira) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jira-url",
			Usage:       "JIRA Cloud base URL (e.g. https://example.atlassian.net)",
			Category:    "JIRA",
			Sources:     cli.EnvVars("WORKTIME_JIRA_URL"),
			Destination: &j.BaseURL,
		},
		&cli.StringFlag{
			Name:        "jira-username",
			Usage:       "JIRA account e-mail",
			Category:    "JIRA",
			Sources:     cli.EnvVars("WORKTIME_JIRA_USERNAME"),
			Destination: &j.Username,
		},
		&cli.StringFlag{
			Name:        "jira-token",
			Usage:       "JIRA API token",
			Category:    "JIRA",
			Sources:     cli.EnvVars("WORKTIME_JIRA_TOKEN"),
			Destination: &j.Token,
		},
		&cli.StringFlag{
			Name:        "jira-story-points-field",
			Usage:       "Custom field holding story points",
			Category:    "JIRA",
			Value:       jira.DefaultStoryPointsField,
			Sources:     cli.EnvVars("WORKTIME_JIRA_STORY_POINTS_FIELD"),
			Destination: &j.StoryPointsField,
		},
	}
}

// Configure creates the JIRA fetcher
func (j *Jira) Configure() (*jira.Fetcher, error) {
	if !j.IsConfigured() {
		return nil, goerr.New("JIRA is not configured. Set --jira-url, --jira-username and --jira-token")
	}

	return jira.New(j.BaseURL, j.Username, j.Token,
		jira.WithStoryPointsField(j.StoryPointsField),
	)
}

// IsConfigured checks if JIRA is properly configured
func (j *Jira) IsConfigured() bool {
	return j.BaseURL != "" && j.Username != "" && j.Token != ""
}

// LogValue returns structured log value. The token is never logged.
func (j Jira) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", j.BaseURL),
		slog.String("username", j.Username),
		slog.Bool("has_token", j.Token != ""),
		slog.String("story_points_field", j.StoryPointsField),
	)
}
