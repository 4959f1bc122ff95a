package model

import (
	"fmt"
	"time"

	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// Ticket is a unit of work time is booked against
type Ticket struct {
	ID          types.TicketID   `json:"id"`
	System      types.SystemType `json:"system"`
	SystemID    types.SystemID   `json:"system_id"`
	Title       string           `json:"title"`
	Type        types.TicketType `json:"ticket_type"`
	StoryPoints int              `json:"story_points"`
	// UserID is only set for anonymous tickets
	UserID     types.UserID `json:"user_id,omitempty"`
	CreateTime time.Time    `json:"create_time"`
}

// AnonTicketTitle is the title given to a ticket synthesized for time that
// could not be matched to any known ticket
func AnonTicketTitle(userID types.UserID, title string) string {
	return fmt.Sprintf("anon(%v): %v", userID, title)
}

// Issue is a ticket as reported by an issue tracker
type Issue struct {
	System      types.SystemType
	SystemID    types.SystemID
	Title       string
	Type        types.TicketType
	StoryPoints int
	CreateTime  time.Time
}
