package repository

import (
	"context"
	"net/url"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Collection names
	usersCollection       = "users"
	ticketsCollection     = "tickets"
	timeEntriesCollection = "time_entries"
	countersCollection    = "counters"

	// Document IDs
	userCounterDocID   = "user"
	ticketCounterDocID = "ticket"

	// Field names
	fieldCurrentNumber = "current_number"
)

// Firestore implements Repository interface with Firestore
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (interfaces.Repository, error) {
	logger := ctxlog.From(ctx)

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	// Fail fast on a wrong project or missing permissions
	_, err = client.Collection(usersCollection).Limit(1).Documents(ctx).Next()
	if err != nil && err != iterator.Done {
		if status.Code(err) == codes.PermissionDenied || status.Code(err) == codes.Unauthenticated {
			_ = client.Close()
			return nil, goerr.Wrap(err, "failed to connect to firestore project",
				goerr.V("firestore error code", status.Code(err).String()),
			)
		}
		logger.Debug("Firestore connection test returned error (may be empty collection)",
			"error", err,
			"errorCode", status.Code(err).String(),
		)
	}

	logger.Info("Firestore repository initialized successfully",
		"projectID", projectID,
		"databaseID", databaseID,
	)

	return &Firestore{
		client: client,
	}, nil
}

// systemDocID turns a (system, systemID) key into a valid document ID
func systemDocID(system types.SystemType, systemID types.SystemID) string {
	return url.PathEscape(system.String() + ":" + systemID.String())
}

// nextNumber increments a counter document inside tx. It must be called
// before any write in the transaction.
func (f *Firestore) nextNumber(tx *firestore.Transaction, docID string) (*firestore.DocumentRef, int64, error) {
	counterDoc := f.client.Collection(countersCollection).Doc(docID)

	doc, err := tx.Get(counterDoc)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return counterDoc, 1, nil
		}
		return nil, 0, goerr.Wrap(err, "failed to get counter document", goerr.V("counter", docID))
	}

	current, err := doc.DataAt(fieldCurrentNumber)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to get current_number field", goerr.V("counter", docID))
	}

	switch v := current.(type) {
	case int64:
		return counterDoc, v + 1, nil
	case int:
		return counterDoc, int64(v) + 1, nil
	default:
		return nil, 0, goerr.New("unexpected type for current_number", goerr.V("counter", docID))
	}
}

// GetUserByEmail retrieves a user by e-mail, ignoring case
func (f *Firestore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, goerr.New("email is empty")
	}

	iter := f.client.Collection(usersCollection).
		Where("Email", "==", model.NormalizeEmail(email)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(model.ErrUserNotFound, "no user with email", goerr.V("email", email))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user from firestore")
	}

	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user")
	}
	return &user, nil
}

// CreateUser creates a user for the e-mail, or returns the existing one
func (f *Firestore) CreateUser(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, goerr.New("email is empty")
	}
	normalized := model.NormalizeEmail(email)

	var user model.User
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := f.client.Collection(usersCollection).Where("Email", "==", normalized).Limit(1)
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to query user")
		}
		if len(docs) > 0 {
			return docs[0].DataTo(&user)
		}

		counterDoc, next, err := f.nextNumber(tx, userCounterDocID)
		if err != nil {
			return err
		}

		user = model.User{ID: types.UserID(next), Email: normalized}
		if err := tx.Set(counterDoc, map[string]any{fieldCurrentNumber: next}); err != nil {
			return err
		}
		return tx.Create(f.client.Collection(usersCollection).Doc(user.ID.String()), &user)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("email", email))
	}

	return &user, nil
}

// ListUsers returns all users ordered by e-mail
func (f *Firestore) ListUsers(ctx context.Context) ([]*model.User, error) {
	iter := f.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []*model.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate users")
		}

		var user model.User
		if err := doc.DataTo(&user); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user")
		}
		users = append(users, &user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})

	return users, nil
}

// GetTicket retrieves a ticket by ID
func (f *Firestore) GetTicket(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	if id == 0 {
		return nil, goerr.New("ticket ID is empty")
	}

	doc, err := f.client.Collection(ticketsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrTicketNotFound, "no ticket with ID", goerr.V("ticketID", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket from firestore")
	}

	var ticket model.Ticket
	if err := doc.DataTo(&ticket); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ticket")
	}
	return &ticket, nil
}

// FindTicketByTitle returns the most recently created ticket with the title
func (f *Firestore) FindTicketByTitle(ctx context.Context, title string) (*model.Ticket, error) {
	// Equality only, ordering is done in memory to avoid a composite index
	iter := f.client.Collection(ticketsCollection).Where("Title", "==", title).Documents(ctx)
	defer iter.Stop()

	var found *model.Ticket
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tickets")
		}

		var ticket model.Ticket
		if err := doc.DataTo(&ticket); err != nil {
			return nil, goerr.Wrap(err, "failed to decode ticket")
		}
		if found == nil || ticket.CreateTime.After(found.CreateTime) ||
			(ticket.CreateTime.Equal(found.CreateTime) && ticket.ID > found.ID) {
			found = &ticket
		}
	}

	if found == nil {
		return nil, goerr.Wrap(model.ErrTicketNotFound, "no ticket with title", goerr.V("title", title))
	}
	return found, nil
}

// PutTicket inserts or updates a ticket keyed on (System, SystemID)
func (f *Firestore) PutTicket(ctx context.Context, ticket *model.Ticket) (types.TicketID, error) {
	if ticket == nil {
		return 0, goerr.New("ticket is nil")
	}
	if ticket.System == "" || ticket.SystemID == "" {
		return 0, goerr.New("ticket system key is empty",
			goerr.V("system", ticket.System),
			goerr.V("systemID", ticket.SystemID))
	}

	var id types.TicketID
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := f.client.Collection(ticketsCollection).
			Where("System", "==", ticket.System.String()).
			Where("SystemID", "==", ticket.SystemID.String()).
			Limit(1)
		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return goerr.Wrap(err, "failed to query ticket")
		}

		if len(docs) > 0 {
			var existing model.Ticket
			if err := docs[0].DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode ticket")
			}
			id = existing.ID
			return tx.Update(docs[0].Ref, []firestore.Update{
				{Path: "Title", Value: ticket.Title},
				{Path: "Type", Value: ticket.Type.String()},
				{Path: "StoryPoints", Value: ticket.StoryPoints},
			})
		}

		counterDoc, next, err := f.nextNumber(tx, ticketCounterDocID)
		if err != nil {
			return err
		}

		newTicket := *ticket
		newTicket.ID = types.TicketID(next)
		id = newTicket.ID
		if err := tx.Set(counterDoc, map[string]any{fieldCurrentNumber: next}); err != nil {
			return err
		}
		return tx.Create(f.client.Collection(ticketsCollection).Doc(id.String()), &newTicket)
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to put ticket",
			goerr.V("system", ticket.System),
			goerr.V("systemID", ticket.SystemID))
	}

	return id, nil
}

// PutTimeEntry inserts or updates a time entry keyed on (System, SystemID)
func (f *Firestore) PutTimeEntry(ctx context.Context, entry *model.TimeEntry) error {
	if entry == nil {
		return goerr.New("time entry is nil")
	}
	if entry.System == "" || entry.SystemID == "" {
		return goerr.New("time entry system key is empty",
			goerr.V("system", entry.System),
			goerr.V("systemID", entry.SystemID))
	}

	docRef := f.client.Collection(timeEntriesCollection).Doc(systemDocID(entry.System, entry.SystemID))
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return tx.Create(docRef, entry)
			}
			return err
		}
		return tx.Update(docRef, []firestore.Update{
			{Path: "Start", Value: entry.Start},
			{Path: "End", Value: entry.End},
		})
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put time entry",
			goerr.V("system", entry.System),
			goerr.V("systemID", entry.SystemID))
	}

	return nil
}

// ListTimeEntries returns entries after since for the given users
func (f *Firestore) ListTimeEntries(ctx context.Context, since time.Time, users []types.UserID) ([]*model.TimeEntry, error) {
	var filter map[types.UserID]bool
	if users != nil {
		if len(users) == 0 {
			return nil, nil
		}
		filter = make(map[types.UserID]bool, len(users))
		for _, id := range users {
			filter[id] = true
		}
	}

	iter := f.client.Collection(timeEntriesCollection).Where("Start", ">", since).Documents(ctx)
	defer iter.Stop()

	var entries []*model.TimeEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate time entries")
		}

		var entry model.TimeEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode time entry",
				goerr.V("docID", doc.Ref.ID))
		}
		if filter != nil && !filter[entry.UserID] {
			continue
		}
		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})

	return entries, nil
}

// Close closes the Firestore client
func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

var _ interfaces.Repository = (*Firestore)(nil) // Compile-time interface check
