package model

import (
	"fmt"
	"time"

	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// TimeEntry is a span of time a user spent on a ticket
type TimeEntry struct {
	UserID   types.UserID     `json:"user_id"`
	System   types.SystemType `json:"system"`
	SystemID types.SystemID   `json:"system_id"`
	Start    time.Time        `json:"start_time"`
	End      time.Time        `json:"end_time"`
	TicketID types.TicketID   `json:"ticket_id"`
}

// Duration returns the length of the entry
func (e *TimeEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// DaySystemID synthesizes a system ID for summary sources that report at most
// one entry per ticket per day. Rewriting history so that a ticket disappears
// from a day it was once reported on leaves the old entry behind.
func DaySystemID(ticketID types.TicketID, start time.Time) types.SystemID {
	return types.SystemID(fmt.Sprintf("%v:%s", ticketID, start.Format("2006-01-02")))
}

// TimeRecord is a time entry as reported by a time tracker, before users and
// tickets are resolved
type TimeRecord struct {
	System    types.SystemType
	Email     string
	TaskTitle string
	Start     time.Time
	End       time.Time
}
