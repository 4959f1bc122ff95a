package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// DefaultHistory is how far back monthly reports look
const DefaultHistory = 365 * 24 * time.Hour

// ReportConfig holds configuration for Report use case
type ReportConfig struct {
	history  time.Duration
	location *time.Location
	now      func() time.Time
}

// ReportOption is a functional option for configuring Report
type ReportOption func(*ReportConfig)

// WithHistory sets how far back monthly reports look
func WithHistory(d time.Duration) ReportOption {
	return func(c *ReportConfig) {
		c.history = d
	}
}

// WithLocation sets the time zone months are cut in
func WithLocation(loc *time.Location) ReportOption {
	return func(c *ReportConfig) {
		c.location = loc
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) ReportOption {
	return func(c *ReportConfig) {
		c.now = now
	}
}

// NewReportConfig creates a new ReportConfig with default values and optional settings
func NewReportConfig(opts ...ReportOption) *ReportConfig {
	config := &ReportConfig{
		history:  DefaultHistory,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Report builds monthly feature/bug reports from stored time entries
type Report struct {
	repo   interfaces.Repository
	teams  *model.TeamsConfig
	config *ReportConfig
}

// NewReport creates a new Report use case
func NewReport(repo interfaces.Repository, teams *model.TeamsConfig, config *ReportConfig) *Report {
	if teams == nil {
		teams = &model.TeamsConfig{}
	}
	if config == nil {
		config = NewReportConfig()
	}
	return &Report{
		repo:   repo,
		teams:  teams,
		config: config,
	}
}

// MonthlyForUser returns the monthly report of one user
func (r *Report) MonthlyForUser(ctx context.Context, userID types.UserID) (*model.MonthlyReport, error) {
	return r.Monthly(ctx, []types.UserID{userID})
}

// MonthlyForTeam returns the monthly report summed over the members of a team
func (r *Report) MonthlyForTeam(ctx context.Context, team types.TeamName) (*model.MonthlyReport, error) {
	if !r.teams.Has(team) {
		return nil, goerr.Wrap(model.ErrTeamNotFound, "unknown team",
			goerr.V("team", team),
			goerr.T(model.ErrTagInvalidQuery))
	}

	users, err := r.UsersInTeam(ctx, team)
	if err != nil {
		return nil, err
	}
	return r.Monthly(ctx, users)
}

// Monthly sums the time of the given users per calendar month and ticket
// type. A nil users slice means every user. Months are in ascending order.
func (r *Report) Monthly(ctx context.Context, users []types.UserID) (*model.MonthlyReport, error) {
	logger := ctxlog.From(ctx)
	since := r.config.now().Add(-r.config.history)

	entries, err := r.repo.ListTimeEntries(ctx, since, users)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list time entries",
			goerr.V("since", since),
			goerr.V("users", users))
	}

	type monthKey struct {
		year  int
		month time.Month
	}

	ticketTypes := make(map[types.TicketID]types.TicketType)
	months := make(map[monthKey]*model.MonthlyRecord)
	for _, entry := range entries {
		ticketType, ok := ticketTypes[entry.TicketID]
		if !ok && entry.TicketID == 0 {
			ticketType, ok = types.TicketTypeOther, true
		}
		if !ok {
			ticket, err := r.repo.GetTicket(ctx, entry.TicketID)
			if err != nil && !errors.Is(err, model.ErrTicketNotFound) {
				return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticketID", entry.TicketID))
			}
			if ticket != nil {
				ticketType = ticket.Type
			} else {
				logger.Warn("Time entry refers to missing ticket",
					"ticketID", entry.TicketID,
					"systemID", entry.SystemID,
				)
				ticketType = types.TicketTypeOther
			}
			ticketTypes[entry.TicketID] = ticketType
		}

		start := entry.Start.In(r.config.location)
		key := monthKey{start.Year(), start.Month()}
		month, ok := months[key]
		if !ok {
			month = &model.MonthlyRecord{Year: key.year, Month: key.month.String()}
			months[key] = month
		}
		month.AddTicketTime(ticketType, entry.Duration())
	}

	keys := make([]monthKey, 0, len(months))
	for key := range months {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	report := &model.MonthlyReport{Months: make([]model.MonthlyRecord, 0, len(keys))}
	for _, key := range keys {
		report.Months = append(report.Months, *months[key])
	}

	logger.Debug("Monthly report built",
		"users", len(users),
		"entries", len(entries),
		"months", len(report.Months),
	)
	return report, nil
}

// UsersInTeam resolves the members of a team to user IDs. Members without a
// user record are skipped.
func (r *Report) UsersInTeam(ctx context.Context, team types.TeamName) ([]types.UserID, error) {
	byEmail, err := r.userIDsByEmail(ctx)
	if err != nil {
		return nil, err
	}

	ids := []types.UserID{}
	for _, email := range r.teams.MemberEmails(team) {
		if id, ok := byEmail[email]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Users lists every user known to the store
func (r *Report) Users(ctx context.Context) ([]*model.User, error) {
	users, err := r.repo.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}
	return users, nil
}

// Teams lists the selectable teams, the all-teams pseudo team first
func (r *Report) Teams(ctx context.Context) ([]model.TeamSummary, error) {
	byEmail, err := r.userIDsByEmail(ctx)
	if err != nil {
		return nil, err
	}

	summaries := []model.TeamSummary{{Name: types.TeamAll}}
	for _, team := range r.teams.Teams {
		summary := model.TeamSummary{Name: team.Name}
		for _, email := range team.MembersEmail {
			if _, ok := byEmail[model.NormalizeEmail(email)]; !ok {
				summary.MembersWithNoData = append(summary.MembersWithNoData, email)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *Report) userIDsByEmail(ctx context.Context) (map[string]types.UserID, error) {
	users, err := r.repo.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	byEmail := make(map[string]types.UserID, len(users))
	for _, user := range users {
		byEmail[model.NormalizeEmail(user.Email)] = user.ID
	}
	return byEmail, nil
}

var _ interfaces.Report = (*Report)(nil)
