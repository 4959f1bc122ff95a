package jira

import (
	"context"
	"fmt"
	"net/http"
	"time"

	jira "github.com/andygrunwald/go-jira/v2/cloud"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

const (
	// DefaultStoryPointsField is the custom field holding story points on
	// JIRA Cloud instances created before the field was built in
	DefaultStoryPointsField = "customfield_10004"
	// DefaultPageSize is how many issues are requested per search call
	DefaultPageSize = 100

	jqlDateLayout = "2006-01-02"
)

// basicAuthTransport authenticates every request with an account e-mail and
// API token
type basicAuthTransport struct {
	username string
	token    string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.token)
	return t.base.RoundTrip(req)
}

// Option is a functional option for configuring Fetcher
type Option func(*Fetcher)

// WithPageSize sets the number of issues requested per page
func WithPageSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithStoryPointsField sets the custom field holding story points
func WithStoryPointsField(field string) Option {
	return func(f *Fetcher) {
		if field != "" {
			f.storyPointsField = field
		}
	}
}

// WithTransport replaces the base HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// Fetcher scrapes issues created in a date range from JIRA Cloud
type Fetcher struct {
	baseURL          string
	username         string
	token            string
	pageSize         int
	storyPointsField string
	transport        http.RoundTripper
	client           *jira.Client
}

// New creates a JIRA fetcher
func New(baseURL, username, token string, opts ...Option) (*Fetcher, error) {
	if baseURL == "" {
		return nil, goerr.New("JIRA URL is required")
	}

	f := &Fetcher{
		baseURL:          baseURL,
		username:         username,
		token:            token,
		pageSize:         DefaultPageSize,
		storyPointsField: DefaultStoryPointsField,
		transport:        http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(f)
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{username: f.username, token: f.token, base: f.transport},
	}
	client, err := jira.NewClient(baseURL, httpClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create JIRA client", goerr.V("url", baseURL))
	}
	f.client = client

	return f, nil
}

// Name returns the source name
func (f *Fetcher) Name() string {
	return "JIRA"
}

// SearchJQL returns the query selecting issues created between start and end
func SearchJQL(start, end time.Time) string {
	return fmt.Sprintf(`created>="%s" AND created<="%s"`, start.Format(jqlDateLayout), end.Format(jqlDateLayout))
}

// Fetch pages through the search results until an empty page and ingests
// each page as it arrives
func (f *Fetcher) Fetch(ctx context.Context, ingest interfaces.Ingester, start, end time.Time) error {
	logger := ctxlog.From(ctx)
	jql := SearchJQL(start, end)

	offset := 0
	for {
		issues, _, err := f.client.Issue.Search(ctx, jql, &jira.SearchOptions{
			StartAt:    offset,
			MaxResults: f.pageSize,
		})
		if err != nil {
			return goerr.Wrap(err, "failed to search JIRA issues",
				goerr.V("jql", jql),
				goerr.V("startAt", offset))
		}
		logger.Info("Fetched JIRA issues", "startAt", offset, "count", len(issues))
		if len(issues) == 0 {
			break
		}

		page := make([]model.Issue, 0, len(issues))
		for _, issue := range issues {
			page = append(page, f.toIssue(ctx, issue))
		}
		if err := ingest.InsertIssues(ctx, page); err != nil {
			return goerr.Wrap(err, "failed to ingest JIRA issues", goerr.V("startAt", offset))
		}
		offset += len(issues)
	}

	return nil
}

func (f *Fetcher) toIssue(ctx context.Context, issue jira.Issue) model.Issue {
	result := model.Issue{
		System:   types.SystemTypeJira,
		SystemID: types.SystemID(issue.ID),
		Type:     types.TicketTypeOther,
	}
	if issue.Fields == nil {
		return result
	}

	result.Title = issue.Fields.Summary
	result.CreateTime = time.Time(issue.Fields.Created)

	ticketType, ok := ParseIssueType(issue.Fields.Type.Name)
	if !ok {
		ctxlog.From(ctx).Warn("Unrecognized JIRA issue type",
			"type", issue.Fields.Type.Name,
			"key", issue.Key)
	}
	result.Type = ticketType

	if v, ok := issue.Fields.Unknowns[f.storyPointsField]; ok {
		if points, ok := v.(float64); ok {
			result.StoryPoints = int(points)
		}
	}
	return result
}

// ParseIssueType maps a JIRA issue type name to a ticket type. Unknown names
// map to other and report false.
func ParseIssueType(name string) (types.TicketType, bool) {
	switch name {
	case "Story":
		return types.TicketTypeFeature, true
	case "Bug":
		return types.TicketTypeBug, true
	case "BAU":
		return types.TicketTypeBAU, true
	case "Test":
		return types.TicketTypeTest, true
	case "Interrupt":
		return types.TicketTypeInterrupt, true
	case "Spike":
		return types.TicketTypeSpike, true
	case "Epic":
		return types.TicketTypeEpic, true
	default:
		return types.TicketTypeOther, false
	}
}

var _ interfaces.Fetcher = (*Fetcher)(nil)
