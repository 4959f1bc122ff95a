package types

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UserID identifies a person whose time is tracked
type UserID int64

// String returns the string representation
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Int64 returns the int64 representation
func (id UserID) Int64() int64 {
	return int64(id)
}

// ParseUserID parses the decimal form used in query strings
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid user ID", goerr.V("userid", s))
	}
	if v <= 0 {
		return 0, goerr.New("user ID must be positive", goerr.V("userid", s))
	}
	return UserID(v), nil
}

// TicketID identifies a ticket in the store
type TicketID int64

// String returns the string representation
func (id TicketID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// TeamName is the configured name of a team
type TeamName string

// String returns the string representation
func (n TeamName) String() string {
	return string(n)
}

// TeamAll selects every member of every configured team
const TeamAll TeamName = "all teams"

// SystemType names the upstream system a record was scraped from
type SystemType string

const (
	SystemTypeAnon    SystemType = "anon"
	SystemTypeJira    SystemType = "jira"
	SystemTypeTMetric SystemType = "tmet"
)

// String returns the string representation
func (s SystemType) String() string {
	return string(s)
}

// SystemID is the identifier of a record inside its upstream system
type SystemID string

// String returns the string representation
func (id SystemID) String() string {
	return string(id)
}

// NewAnonSystemID generates a system ID for tickets that exist in no upstream system
func NewAnonSystemID() SystemID {
	return SystemID(uuid.New().String())
}

// TicketType classifies the work a ticket represents
type TicketType string

const (
	TicketTypeBug       TicketType = "bug"
	TicketTypeFeature   TicketType = "feat"
	TicketTypeBAU       TicketType = "bau" // business as usual
	TicketTypeTest      TicketType = "test"
	TicketTypeInterrupt TicketType = "intr"
	TicketTypeEpic      TicketType = "epic"
	TicketTypeSpike     TicketType = "spike"
	TicketTypeOther     TicketType = "other"
	TicketTypeAnon      TicketType = "anon"
)

// String returns the string representation
func (t TicketType) String() string {
	return string(t)
}

// IsValid checks if the ticket type is known
func (t TicketType) IsValid() bool {
	switch t {
	case TicketTypeBug, TicketTypeFeature, TicketTypeBAU, TicketTypeTest,
		TicketTypeInterrupt, TicketTypeEpic, TicketTypeSpike, TicketTypeOther, TicketTypeAnon:
		return true
	default:
		return false
	}
}
