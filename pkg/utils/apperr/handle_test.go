package apperr_test

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/utils/apperr"
)

func TestUserMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		contains string
	}{
		{"network", goerr.New("dial failed", goerr.T(model.ErrTagNetwork)), "Could not reach"},
		{"decode", goerr.New("bad json", goerr.T(model.ErrTagDecode)), "could not be read"},
		{"empty", goerr.New("no months", goerr.T(model.ErrTagEmptyReport)), "No time has been recorded"},
		{"wrapped tag survives", goerr.Wrap(goerr.New("no months", goerr.T(model.ErrTagEmptyReport)), "outer"), "No time has been recorded"},
		{"invalid query", goerr.New("both userid and team given", goerr.T(model.ErrTagInvalidQuery)), "both userid and team given"},
		{"untagged", goerr.New("boom"), "Unexpected error: boom"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.S(t, apperr.UserMessage(tc.err)).Contains(tc.contains)
		})
	}

	gt.Equal(t, apperr.UserMessage(nil), "")
}
