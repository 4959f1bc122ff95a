package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/model"
)

// Handle logs an error that has no caller left to return it to
func Handle(ctx context.Context, err error) {
	logger := ctxlog.From(ctx)
	logger.Error("application error", "error", err)
}

// UserMessage returns the text shown to a person for err
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case goerr.HasTag(err, model.ErrTagNetwork):
		return "Could not reach the report server. Please try again."
	case goerr.HasTag(err, model.ErrTagDecode):
		return "The report server returned data that could not be read."
	case goerr.HasTag(err, model.ErrTagEmptyReport):
		return "No time has been recorded for this selection."
	case goerr.HasTag(err, model.ErrTagInvalidQuery):
		return "Invalid selection: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
