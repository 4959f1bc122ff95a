package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Teams holds the path of the teams file
type Teams struct {
	Path string
}

// Flags returns CLI flags for Teams configuration
func (t *Teams) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "teams",
			Usage:       "Path to YAML file listing teams and their member e-mails",
			Category:    "Report",
			Sources:     cli.EnvVars("WORKTIME_TEAMS"),
			Destination: &t.Path,
		},
	}
}

// Configure loads the teams file. Without a file only the all-teams pseudo
// team exists, and it has no members.
func (t *Teams) Configure() (*model.TeamsConfig, error) {
	if !t.IsConfigured() {
		return &model.TeamsConfig{}, nil
	}
	return LoadTeamsFromFile(t.Path)
}

// IsConfigured checks if a teams file is set
func (t *Teams) IsConfigured() bool {
	return t.Path != ""
}

// LogValue returns structured log value
func (t Teams) LogValue() slog.Value {
	return slog.GroupValue(slog.String("path", t.Path))
}

// LoadTeamsFromFile loads teams from YAML file
func LoadTeamsFromFile(path string) (*model.TeamsConfig, error) {
	if path == "" {
		return nil, goerr.New("teams file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "teams file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read teams file",
			goerr.V("path", path))
	}

	var teams model.TeamsConfig
	if err := yaml.Unmarshal(data, &teams); err != nil {
		return nil, goerr.Wrap(err, "failed to parse teams file",
			goerr.V("path", path))
	}

	if err := teams.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid teams file",
			goerr.V("path", path))
	}

	return &teams, nil
}
