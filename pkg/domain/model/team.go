package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// Team is a named group of users identified by e-mail
type Team struct {
	Name         types.TeamName `yaml:"name"`
	MembersEmail []string       `yaml:"members"`
}

// Validate validates the team
func (t *Team) Validate() error {
	if t.Name == "" {
		return goerr.New("team name is required")
	}
	if t.Name == types.TeamAll {
		return goerr.New("team name is reserved", goerr.V("name", t.Name))
	}
	return nil
}

// TeamsConfig represents the teams configuration
type TeamsConfig struct {
	Teams []Team `yaml:"teams"`
}

// Validate validates the teams configuration
func (c *TeamsConfig) Validate() error {
	names := make(map[types.TeamName]bool)
	for i, team := range c.Teams {
		if err := team.Validate(); err != nil {
			return goerr.Wrap(err, "invalid team at index",
				goerr.V("index", i),
				goerr.V("name", team.Name))
		}
		if names[team.Name] {
			return goerr.New("duplicate team name", goerr.V("name", team.Name))
		}
		names[team.Name] = true
	}
	return nil
}

// Has reports whether name is a configured team or the all-teams pseudo team
func (c *TeamsConfig) Has(name types.TeamName) bool {
	if name == types.TeamAll {
		return true
	}
	for _, team := range c.Teams {
		if team.Name == name {
			return true
		}
	}
	return false
}

// MemberEmails returns the normalized e-mails of the members of a team.
// types.TeamAll selects all members of all teams.
func (c *TeamsConfig) MemberEmails(name types.TeamName) []string {
	var emails []string
	for _, team := range c.Teams {
		if team.Name != name && name != types.TeamAll {
			continue
		}
		for _, email := range team.MembersEmail {
			emails = append(emails, NormalizeEmail(email))
		}
	}
	return emails
}

// TeamSummary is a team as listed on the dashboard
type TeamSummary struct {
	Name types.TeamName
	// MembersWithNoData have no user record in the store
	MembersWithNoData []string
}

// Title is the selector caption for the team
func (s *TeamSummary) Title() string {
	if len(s.MembersWithNoData) != 0 {
		return s.Name.String() + " (no data for: " + strings.Join(s.MembersWithNoData, ", ") + ")"
	}
	return s.Name.String()
}
