package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	// User operations
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// CreateUser returns the existing user when the e-mail is already known
	CreateUser(ctx context.Context, email string) (*model.User, error)
	// ListUsers returns all users ordered by e-mail
	ListUsers(ctx context.Context) ([]*model.User, error)

	// Ticket operations
	GetTicket(ctx context.Context, id types.TicketID) (*model.Ticket, error)
	// FindTicketByTitle returns the most recently created ticket with the exact title
	FindTicketByTitle(ctx context.Context, title string) (*model.Ticket, error)
	// PutTicket inserts or updates a ticket keyed on (System, SystemID). An ID
	// is assigned on insert.
	PutTicket(ctx context.Context, ticket *model.Ticket) (types.TicketID, error)

	// Time entry operations
	// PutTimeEntry inserts or updates an entry keyed on (System, SystemID)
	PutTimeEntry(ctx context.Context, entry *model.TimeEntry) error
	// ListTimeEntries returns entries starting after since, for the given users
	// or for everyone when users is nil, ordered by start time
	ListTimeEntries(ctx context.Context, since time.Time, users []types.UserID) ([]*model.TimeEntry, error)

	// Close closes the repository connection
	Close() error
}
