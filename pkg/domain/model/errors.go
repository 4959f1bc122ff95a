package model

import "github.com/m-mizutani/goerr/v2"

// Error tags shown to users as distinct failure kinds
var (
	ErrTagNetwork      = goerr.NewTag("network_error")
	ErrTagDecode       = goerr.NewTag("decode_error")
	ErrTagEmptyReport  = goerr.NewTag("empty_report")
	ErrTagInvalidQuery = goerr.NewTag("invalid_query")
)

// Sentinel errors for domain operations
var (
	ErrUserNotFound   = goerr.New("user not found")
	ErrTicketNotFound = goerr.New("ticket not found")
	ErrTeamNotFound   = goerr.New("team not found")
)
