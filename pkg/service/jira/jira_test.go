package jira_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/service/jira"
)

type recordingIngester struct {
	mu     sync.Mutex
	issues []model.Issue
}

func (r *recordingIngester) InsertIssues(ctx context.Context, issues []model.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, issues...)
	return nil
}

func (r *recordingIngester) InsertTimes(ctx context.Context, times []model.TimeRecord) error {
	return nil
}

func issueJSON(id, summary, issueType string, points float64) map[string]any {
	return map[string]any{
		"id":  id,
		"key": "PRJ-" + id,
		"fields": map[string]any{
			"summary":           summary,
			"issuetype":         map[string]any{"name": issueType},
			"created":           "2024-01-05T09:55:24.000+0200",
			"customfield_10004": points,
		},
	}
}

func TestFetcher_Fetch(t *testing.T) {
	all := []map[string]any{
		issueJSON("10", "Add login", "Story", 3),
		issueJSON("11", "Crash on save", "Bug", 1),
		issueJSON("12", "Investigate", "Task", 0),
	}

	var (
		mu       sync.Mutex
		startAts []int
		jqls     []string
		user     string
		pass     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/search") {
			http.NotFound(w, r)
			return
		}
		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))

		mu.Lock()
		startAts = append(startAts, startAt)
		jqls = append(jqls, r.URL.Query().Get("jql"))
		user, pass, _ = r.BasicAuth()
		mu.Unlock()

		end := min(startAt+maxResults, len(all))
		page := []map[string]any{}
		if startAt < len(all) {
			page = all[startAt:end]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"startAt":    startAt,
			"maxResults": maxResults,
			"total":      len(all),
			"issues":     page,
		})
	}))
	defer srv.Close()

	fetcher, err := jira.New(srv.URL, "bot@example.com", "secret", jira.WithPageSize(2))
	gt.NoError(t, err).Required()
	gt.Equal(t, fetcher.Name(), "JIRA")

	ingest := &recordingIngester{}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
	gt.NoError(t, fetcher.Fetch(context.Background(), ingest, start, end)).Required()

	gt.Equal(t, startAts, []int{0, 2, 3})
	gt.Equal(t, jqls[0], `created>="2024-01-01" AND created<="2024-01-31"`)
	gt.Equal(t, user, "bot@example.com")
	gt.Equal(t, pass, "secret")

	gt.A(t, ingest.issues).Length(3)
	first := ingest.issues[0]
	gt.Equal(t, first.System, types.SystemTypeJira)
	gt.Equal(t, first.SystemID, types.SystemID("10"))
	gt.Equal(t, first.Title, "Add login")
	gt.Equal(t, first.Type, types.TicketTypeFeature)
	gt.Equal(t, first.StoryPoints, 3)
	gt.True(t, first.CreateTime.Equal(time.Date(2024, 1, 5, 7, 55, 24, 0, time.UTC)))

	gt.Equal(t, ingest.issues[1].Type, types.TicketTypeBug)
	gt.Equal(t, ingest.issues[2].Type, types.TicketTypeOther)
}

func TestFetcher_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages":["unauthorized"]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	fetcher, err := jira.New(srv.URL, "bot@example.com", "wrong")
	gt.NoError(t, err).Required()

	err = fetcher.Fetch(context.Background(), &recordingIngester{}, time.Now().Add(-time.Hour), time.Now())
	gt.Error(t, err)
}

func TestParseIssueType(t *testing.T) {
	testCases := []struct {
		name   string
		expect types.TicketType
		known  bool
	}{
		{"Story", types.TicketTypeFeature, true},
		{"Bug", types.TicketTypeBug, true},
		{"BAU", types.TicketTypeBAU, true},
		{"Test", types.TicketTypeTest, true},
		{"Interrupt", types.TicketTypeInterrupt, true},
		{"Spike", types.TicketTypeSpike, true},
		{"Epic", types.TicketTypeEpic, true},
		{"Sub-task", types.TicketTypeOther, false},
		{"", types.TicketTypeOther, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, known := jira.ParseIssueType(tc.name)
			gt.Equal(t, got, tc.expect)
			gt.Equal(t, known, tc.known)
		})
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := jira.New("", "u", "p")
	gt.Error(t, err)
}
