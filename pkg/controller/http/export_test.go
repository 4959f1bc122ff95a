package http

import (
	"net/url"

	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// ParseReportQuery exposes query parsing for tests
func ParseReportQuery(values url.Values) (types.UserID, types.TeamName, error) {
	q, err := parseReportQuery(values)
	return q.userID, q.team, err
}

// StatusOf exposes error to status mapping for tests
var StatusOf = statusOf
