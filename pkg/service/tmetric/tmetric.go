package tmetric

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the TMetric web application
	DefaultBaseURL = "https://app.tmetric.com"
	// DefaultConcurrency is how many days are downloaded at once
	DefaultConcurrency = 4

	apiDateLayout = "2006-01-02T15:04:05.000Z"
	reportPath    = "/api/reports/detailed/csv"
)

// Config holds the TMetric account settings
type Config struct {
	BaseURL     string
	AccountID   string
	EmailSuffix string
	// Cookies of a logged-in browser session
	Cookies map[string]string
}

// Option is a functional option for configuring Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.http = c
	}
}

// WithConcurrency sets how many days are downloaded in parallel
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLocation sets the time zone days are cut in
func WithLocation(loc *time.Location) Option {
	return func(f *Fetcher) {
		f.location = loc
	}
}

// Fetcher scrapes the detailed time report of TMetric one day at a time.
// The report only carries per-day durations per task, so each entry is
// placed at TaskStartHour of its day.
type Fetcher struct {
	config      Config
	http        *http.Client
	concurrency int
	location    *time.Location
}

// New creates a TMetric fetcher
func New(config Config, opts ...Option) (*Fetcher, error) {
	if config.AccountID == "" {
		return nil, goerr.New("TMetric account ID is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	f := &Fetcher{
		config:      config,
		http:        &http.Client{Timeout: time.Minute},
		concurrency: DefaultConcurrency,
		location:    time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Name returns the source name
func (f *Fetcher) Name() string {
	return "TMetric"
}

// Day is the window of one report request
type Day struct {
	Start time.Time
	End   time.Time
}

// SplitDays cuts [start, end) into windows starting at local midnight. The
// last window is clipped to end.
func SplitDays(start, end time.Time, loc *time.Location) []Day {
	var days []Day
	pos := roundDownToDay(start, loc)
	for pos.Before(end) {
		next := time.Date(pos.Year(), pos.Month(), pos.Day()+1, 0, 0, 0, 0, loc)
		if next.After(end) {
			next = end
		}
		days = append(days, Day{Start: pos, End: next})
		pos = next
	}
	return days
}

func roundDownToDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Fetch downloads every day of [start, end] concurrently and ingests them in
// day order
func (f *Fetcher) Fetch(ctx context.Context, ingest interfaces.Ingester, start, end time.Time) error {
	logger := ctxlog.From(ctx)
	days := SplitDays(start, end, f.location)
	raws := make([][]byte, len(days))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, day := range days {
		g.Go(func() error {
			logger.Info("Fetching TMetric",
				"start", day.Start.Format(time.RFC3339),
				"end", day.End.Format(time.RFC3339))
			raw, err := f.fetchRaw(gCtx, day.Start, day.End)
			if err != nil {
				return err
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, day := range days {
		records, err := ParseReport(raws[i], day.Start, f.config.EmailSuffix)
		if err != nil {
			return goerr.Wrap(err, "failed to parse TMetric report", goerr.V("day", day.Start))
		}
		if err := ingest.InsertTimes(ctx, records); err != nil {
			return goerr.Wrap(err, "failed to ingest TMetric times", goerr.V("day", day.Start))
		}
	}

	return nil
}

func (f *Fetcher) fetchRaw(ctx context.Context, start, end time.Time) ([]byte, error) {
	q := url.Values{}
	q.Set("accountId", f.config.AccountID)
	q.Set("activeProjectsOnly", "false")
	q.Set("budget", "false")
	q.Set("startDate", start.UTC().Format(apiDateLayout))
	q.Set("endDate", end.UTC().Format(apiDateLayout))
	q.Add("groupColumnNames", "project")
	q.Add("groupColumnNames", "user")
	q.Set("noRounding", "false")
	endpoint := f.config.BaseURL + reportPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build TMetric request")
	}
	for name, value := range f.config.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "TMetric request failed", goerr.V("start", start))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			ctxlog.From(ctx).Warn("failed to close TMetric response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("TMetric returned error status",
			goerr.V("status", resp.Status),
			goerr.V("start", start))
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, goerr.Wrap(err, "failed to read TMetric response", goerr.V("start", start))
	}
	return buf.Bytes(), nil
}

var _ interfaces.Fetcher = (*Fetcher)(nil)
