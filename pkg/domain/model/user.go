package model

import (
	"strings"

	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// User is a person who books time. Users are created on first sight of their
// e-mail address in a time report.
type User struct {
	ID    types.UserID `json:"id"`
	Email string       `json:"email"`
}

// NormalizeEmail returns the form used for e-mail comparisons
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
