package reportclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
)

// DefaultTimeout bounds a single report request
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is kept in the error
const maxErrorBody = 512

// Query selects whose report to fetch. Exactly one field must be set.
type Query struct {
	UserID types.UserID
	Team   types.TeamName
}

// Validate checks that exactly one of UserID and Team is set
func (q Query) Validate() error {
	switch {
	case q.UserID != 0 && q.Team != "":
		return goerr.New("both userid and team are set",
			goerr.V("userid", q.UserID),
			goerr.V("team", q.Team),
			goerr.T(model.ErrTagInvalidQuery))
	case q.UserID == 0 && q.Team == "":
		return goerr.New("either userid or team is required", goerr.T(model.ErrTagInvalidQuery))
	}
	return nil
}

// Option is a functional option for configuring Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.http.Timeout = d
	}
}

// Client fetches monthly reports from a report server
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a client for the report server at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid report server URL", goerr.V("url", baseURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, goerr.New("report server URL must be http or https", goerr.V("url", baseURL))
	}

	client := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchUser retrieves the monthly report of one user
func (c *Client) FetchUser(ctx context.Context, userID types.UserID) (*model.MonthlyReport, error) {
	return c.FetchMonthly(ctx, Query{UserID: userID})
}

// FetchTeam retrieves the monthly report of a team
func (c *Client) FetchTeam(ctx context.Context, team types.TeamName) (*model.MonthlyReport, error) {
	return c.FetchMonthly(ctx, Query{Team: team})
}

// FetchMonthly retrieves a monthly report. Users are fetched from /user and
// teams from /monthly.
func (c *Client) FetchMonthly(ctx context.Context, q Query) (*model.MonthlyReport, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	endpoint := c.endpoint(q)
	logger := ctxlog.From(ctx)
	logger.Debug("Fetching monthly report", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", endpoint))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "report request failed",
			goerr.V("url", endpoint),
			goerr.T(model.ErrTagNetwork))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, goerr.New(rejectionMessage(body),
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.T(model.ErrTagInvalidQuery))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, goerr.New("report server returned error status",
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", strings.TrimSpace(string(body))),
			goerr.T(model.ErrTagNetwork))
	}

	var report model.MonthlyReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) {
			return nil, goerr.Wrap(err, "failed to read report",
				goerr.V("url", endpoint),
				goerr.T(model.ErrTagNetwork))
		}
		return nil, goerr.Wrap(err, "failed to decode report",
			goerr.V("url", endpoint),
			goerr.T(model.ErrTagDecode))
	}

	if report.IsEmpty() {
		return nil, goerr.New("report has no months",
			goerr.V("url", endpoint),
			goerr.T(model.ErrTagEmptyReport))
	}

	logger.Debug("Monthly report fetched", "months", len(report.Months))
	return &report, nil
}

// rejectionMessage extracts the server's {"error": ...} text from a 4xx body
func rejectionMessage(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == "" {
		return "report server rejected the query"
	}
	return resp.Error
}

func (c *Client) endpoint(q Query) string {
	u := *c.baseURL
	values := url.Values{}
	if q.UserID != 0 {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/user"
		values.Set("userid", q.UserID.String())
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/monthly"
		values.Set("team", q.Team.String())
	}
	u.RawQuery = values.Encode()
	return u.String()
}

var _ interfaces.ReportSource = (*Client)(nil)
