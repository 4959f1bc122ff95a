package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

type systemKey struct {
	system   types.SystemType
	systemID types.SystemID
}

// Memory implements Repository interface with in-memory storage
type Memory struct {
	mu            sync.RWMutex
	users         map[types.UserID]*model.User
	usersByEmail  map[string]types.UserID
	tickets       map[types.TicketID]*model.Ticket
	ticketsByKey  map[systemKey]types.TicketID
	timeEntries   map[systemKey]*model.TimeEntry
	userCounter   types.UserID
	ticketCounter types.TicketID
}

// NewMemory creates a new memory repository
func NewMemory() interfaces.Repository {
	return &Memory{
		users:        make(map[types.UserID]*model.User),
		usersByEmail: make(map[string]types.UserID),
		tickets:      make(map[types.TicketID]*model.Ticket),
		ticketsByKey: make(map[systemKey]types.TicketID),
		timeEntries:  make(map[systemKey]*model.TimeEntry),
	}
}

// GetUserByEmail retrieves a user by e-mail, ignoring case
func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, goerr.New("email is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.usersByEmail[model.NormalizeEmail(email)]
	if !exists {
		return nil, goerr.Wrap(model.ErrUserNotFound, "no user with email", goerr.V("email", email))
	}

	userCopy := *m.users[id]
	return &userCopy, nil
}

// CreateUser creates a user for the e-mail, or returns the existing one
func (m *Memory) CreateUser(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, goerr.New("email is empty")
	}
	normalized := model.NormalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, exists := m.usersByEmail[normalized]; exists {
		userCopy := *m.users[id]
		return &userCopy, nil
	}

	m.userCounter++
	user := &model.User{ID: m.userCounter, Email: normalized}
	m.users[user.ID] = user
	m.usersByEmail[normalized] = user.ID

	userCopy := *user
	return &userCopy, nil
}

// ListUsers returns all users ordered by e-mail
func (m *Memory) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*model.User, 0, len(m.users))
	for _, user := range m.users {
		userCopy := *user
		users = append(users, &userCopy)
	}

	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Email) < strings.ToLower(users[j].Email)
	})

	return users, nil
}

// GetTicket retrieves a ticket by ID
func (m *Memory) GetTicket(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	if id == 0 {
		return nil, goerr.New("ticket ID is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ticket, exists := m.tickets[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrTicketNotFound, "no ticket with ID", goerr.V("ticketID", id))
	}

	ticketCopy := *ticket
	return &ticketCopy, nil
}

// FindTicketByTitle returns the most recently created ticket with the title
func (m *Memory) FindTicketByTitle(ctx context.Context, title string) (*model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *model.Ticket
	for _, ticket := range m.tickets {
		if ticket.Title != title {
			continue
		}
		if found == nil || ticket.CreateTime.After(found.CreateTime) ||
			(ticket.CreateTime.Equal(found.CreateTime) && ticket.ID > found.ID) {
			found = ticket
		}
	}
	if found == nil {
		return nil, goerr.Wrap(model.ErrTicketNotFound, "no ticket with title", goerr.V("title", title))
	}

	ticketCopy := *found
	return &ticketCopy, nil
}

// PutTicket inserts or updates a ticket keyed on (System, SystemID)
func (m *Memory) PutTicket(ctx context.Context, ticket *model.Ticket) (types.TicketID, error) {
	if ticket == nil {
		return 0, goerr.New("ticket is nil")
	}
	if ticket.System == "" || ticket.SystemID == "" {
		return 0, goerr.New("ticket system key is empty",
			goerr.V("system", ticket.System),
			goerr.V("systemID", ticket.SystemID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := systemKey{ticket.System, ticket.SystemID}
	if id, exists := m.ticketsByKey[key]; exists {
		existing := m.tickets[id]
		existing.Title = ticket.Title
		existing.Type = ticket.Type
		existing.StoryPoints = ticket.StoryPoints
		return id, nil
	}

	m.ticketCounter++
	ticketCopy := *ticket
	ticketCopy.ID = m.ticketCounter
	m.tickets[ticketCopy.ID] = &ticketCopy
	m.ticketsByKey[key] = ticketCopy.ID

	return ticketCopy.ID, nil
}

// PutTimeEntry inserts or updates a time entry keyed on (System, SystemID)
func (m *Memory) PutTimeEntry(ctx context.Context, entry *model.TimeEntry) error {
	if entry == nil {
		return goerr.New("time entry is nil")
	}
	if entry.System == "" || entry.SystemID == "" {
		return goerr.New("time entry system key is empty",
			goerr.V("system", entry.System),
			goerr.V("systemID", entry.SystemID))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := systemKey{entry.System, entry.SystemID}
	if existing, exists := m.timeEntries[key]; exists {
		existing.Start = entry.Start
		existing.End = entry.End
		return nil
	}

	entryCopy := *entry
	m.timeEntries[key] = &entryCopy
	return nil
}

// ListTimeEntries returns entries after since for the given users
func (m *Memory) ListTimeEntries(ctx context.Context, since time.Time, users []types.UserID) ([]*model.TimeEntry, error) {
	var filter map[types.UserID]bool
	if users != nil {
		filter = make(map[types.UserID]bool, len(users))
		for _, id := range users {
			filter[id] = true
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*model.TimeEntry
	for _, entry := range m.timeEntries {
		if !entry.Start.After(since) {
			continue
		}
		if filter != nil && !filter[entry.UserID] {
			continue
		}
		entryCopy := *entry
		entries = append(entries, &entryCopy)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})

	return entries, nil
}

// Close does nothing for the memory repository
func (m *Memory) Close() error {
	return nil
}

var _ interfaces.Repository = (*Memory)(nil) // Compile-time interface check
