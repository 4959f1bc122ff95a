package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// Ingest stores scraped tickets and time entries
type Ingest struct {
	repo interfaces.Repository
	now  func() time.Time
}

// NewIngest creates a new Ingest use case
func NewIngest(repo interfaces.Repository) *Ingest {
	return &Ingest{
		repo: repo,
		now:  time.Now,
	}
}

// InsertIssues upserts tickets keyed on their upstream system ID
func (u *Ingest) InsertIssues(ctx context.Context, issues []model.Issue) error {
	for _, issue := range issues {
		ticket := &model.Ticket{
			System:      issue.System,
			SystemID:    issue.SystemID,
			Title:       issue.Title,
			Type:        issue.Type,
			StoryPoints: issue.StoryPoints,
			CreateTime:  issue.CreateTime,
		}
		if _, err := u.repo.PutTicket(ctx, ticket); err != nil {
			return goerr.Wrap(err, "failed to insert issue",
				goerr.V("system", issue.System),
				goerr.V("systemID", issue.SystemID))
		}
	}

	ctxlog.From(ctx).Debug("Issues inserted", "count", len(issues))
	return nil
}

// ingestCache memoizes lookups for the duration of one batch
type ingestCache struct {
	emailToUser   map[string]types.UserID
	titleToTicket map[string]types.TicketID
}

func newIngestCache() *ingestCache {
	return &ingestCache{
		emailToUser:   make(map[string]types.UserID),
		titleToTicket: make(map[string]types.TicketID),
	}
}

// InsertTimes resolves users and tickets for each record and upserts the
// resulting time entries. Time that matches no ticket title is booked
// against an anonymous ticket owned by the user.
func (u *Ingest) InsertTimes(ctx context.Context, times []model.TimeRecord) error {
	cache := newIngestCache()

	for _, tt := range times {
		userID, err := u.emailToUser(ctx, cache, tt.Email)
		if err != nil {
			return err
		}
		ticketID, err := u.titleToTicket(ctx, cache, userID, tt.TaskTitle)
		if err != nil {
			return err
		}

		entry := &model.TimeEntry{
			UserID:   userID,
			System:   tt.System,
			SystemID: model.DaySystemID(ticketID, tt.Start),
			Start:    tt.Start,
			End:      tt.End,
			TicketID: ticketID,
		}
		if err := u.repo.PutTimeEntry(ctx, entry); err != nil {
			return goerr.Wrap(err, "failed to insert time entry",
				goerr.V("email", tt.Email),
				goerr.V("task", tt.TaskTitle))
		}
	}

	ctxlog.From(ctx).Debug("Time entries inserted", "count", len(times))
	return nil
}

func (u *Ingest) emailToUser(ctx context.Context, cache *ingestCache, email string) (types.UserID, error) {
	normalized := model.NormalizeEmail(email)
	if id, ok := cache.emailToUser[normalized]; ok {
		return id, nil
	}

	// Known users are the common case; only unseen e-mails pay for a create
	user, err := u.repo.GetUserByEmail(ctx, normalized)
	if errors.Is(err, model.ErrUserNotFound) {
		user, err = u.repo.CreateUser(ctx, normalized)
	}
	if err != nil {
		return 0, goerr.Wrap(err, "failed to resolve user", goerr.V("email", email))
	}

	cache.emailToUser[normalized] = user.ID
	return user.ID, nil
}

func (u *Ingest) titleToTicket(ctx context.Context, cache *ingestCache, userID types.UserID, title string) (types.TicketID, error) {
	if id, err := u.findTicket(ctx, cache, title); id != 0 || err != nil {
		return id, err
	}

	anonTitle := model.AnonTicketTitle(userID, title)
	if id, err := u.findTicket(ctx, cache, anonTitle); id != 0 || err != nil {
		return id, err
	}

	ctxlog.From(ctx).Info("Unable to find ticket, creating an anonymous task",
		"title", title,
		"userID", userID,
	)

	id, err := u.repo.PutTicket(ctx, &model.Ticket{
		System:     types.SystemTypeAnon,
		SystemID:   types.NewAnonSystemID(),
		Title:      anonTitle,
		Type:       types.TicketTypeAnon,
		UserID:     userID,
		CreateTime: u.now(),
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create anonymous ticket",
			goerr.V("title", title),
			goerr.V("userID", userID))
	}

	cache.titleToTicket[anonTitle] = id
	return id, nil
}

// findTicket returns 0 and no error when no ticket has the title
func (u *Ingest) findTicket(ctx context.Context, cache *ingestCache, title string) (types.TicketID, error) {
	if id, ok := cache.titleToTicket[title]; ok {
		return id, nil
	}

	ticket, err := u.repo.FindTicketByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, model.ErrTicketNotFound) {
			return 0, nil
		}
		return 0, goerr.Wrap(err, "failed to find ticket", goerr.V("title", title))
	}

	cache.titleToTicket[title] = ticket.ID
	return ticket.ID, nil
}

var _ interfaces.Ingester = (*Ingest)(nil)
