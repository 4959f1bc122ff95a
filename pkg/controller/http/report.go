package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/domain/types"
	"github.com/secmon-lab/worktime/pkg/service/export"
	"github.com/secmon-lab/worktime/pkg/usecase"
)

// maxChartSide bounds requested chart dimensions
const maxChartSide = 4000

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportQuery selects one user or one team
type reportQuery struct {
	userID types.UserID
	team   types.TeamName
}

func (q reportQuery) title() string {
	if q.userID != 0 {
		return "user " + q.userID.String()
	}
	return q.team.String()
}

func invalidQuery(msg string, opts ...goerr.Option) error {
	return goerr.New(msg, append(opts, goerr.T(model.ErrTagInvalidQuery))...)
}

// parseReportQuery reads exactly one of userid and team
func parseReportQuery(values url.Values) (reportQuery, error) {
	rawUser, rawTeam := values.Get("userid"), values.Get("team")
	switch {
	case rawUser != "" && rawTeam != "":
		return reportQuery{}, invalidQuery("only one of userid and team may be given")
	case rawUser == "" && rawTeam == "":
		return reportQuery{}, invalidQuery("userid or team is required")
	case rawTeam != "":
		return reportQuery{team: types.TeamName(rawTeam)}, nil
	}

	id, err := types.ParseUserID(rawUser)
	if err != nil {
		return reportQuery{}, goerr.Wrap(err, "invalid userid", goerr.T(model.ErrTagInvalidQuery))
	}
	return reportQuery{userID: id}, nil
}

func (s *Server) monthly(ctx context.Context, q reportQuery) (*model.MonthlyReport, error) {
	if q.userID != 0 {
		return s.report.MonthlyForUser(ctx, q.userID)
	}
	return s.report.MonthlyForTeam(ctx, q.team)
}

type userOption struct {
	ID    types.UserID
	Email string
}

type teamOption struct {
	Name  types.TeamName
	Title string
}

type indexPage struct {
	ShowUsers bool
	Users     []userOption
	Teams     []teamOption
	Width     int
	Height    int
}

// handleIndex renders the dashboard page. The user selector is only shown
// with ?foo=bar.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := indexPage{
		ShowUsers: r.URL.Query().Get("foo") == "bar",
		Width:     s.chartSize.Width,
		Height:    s.chartSize.Height,
	}

	if page.ShowUsers {
		users, err := s.report.Users(ctx)
		if err != nil {
			handleError(w, r, err)
			return
		}
		for _, u := range users {
			page.Users = append(page.Users, userOption{ID: u.ID, Email: u.Email})
		}
	}

	teams, err := s.report.Teams(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	for _, t := range teams {
		page.Teams = append(page.Teams, teamOption{Name: t.Name, Title: t.Title()})
	}

	var buf bytes.Buffer
	if err := s.index.Execute(&buf, page); err != nil {
		handleError(w, r, goerr.Wrap(err, "failed to render index page"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		ctxlog.From(ctx).Warn("Failed to write index page", "error", err)
	}
}

// handleUser serves the monthly report of one user
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if values.Get("userid") == "" {
		handleError(w, r, invalidQuery("userid is required"))
		return
	}
	s.serveMonthlyJSON(w, r, values)
}

// handleMonthly serves the monthly report of a user or a team
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	s.serveMonthlyJSON(w, r, r.URL.Query())
}

func (s *Server) serveMonthlyJSON(w http.ResponseWriter, r *http.Request, values url.Values) {
	q, err := parseReportQuery(values)
	if err != nil {
		handleError(w, r, err)
		return
	}

	report, err := s.monthly(r.Context(), q)
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode monthly report", "error", err)
	}
}

// parseRenderOptions reads optional width and height
func (s *Server) parseRenderOptions(values url.Values) (model.RenderOptions, error) {
	opts := s.chartSize
	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxChartSide {
			return opts, invalidQuery("invalid chart dimension",
				goerr.V("name", name),
				goerr.V("value", raw))
		}
		*dst = n
	}
	return opts, nil
}

func parseAnnotate(values url.Values) bool {
	switch values.Get("annotate") {
	case "1", "true", "on":
		return true
	default:
		return false
	}
}

// handleChart renders the monthly chart of a user or a team
func (s *Server) handleChart(format model.ChartFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()
		q, err := parseReportQuery(values)
		if err != nil {
			handleError(w, r, err)
			return
		}
		opts, err := s.parseRenderOptions(values)
		if err != nil {
			handleError(w, r, err)
			return
		}

		report, err := s.monthly(r.Context(), q)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if report.IsEmpty() {
			handleError(w, r, goerr.New("no time has been recorded",
				goerr.V("query", q.title()),
				goerr.T(model.ErrTagEmptyReport)))
			return
		}

		series := s.transformer.Transform(report, parseAnnotate(values))
		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, series, opts, format); err != nil {
			handleError(w, r, err)
			return
		}
		if s.metrics != nil {
			s.metrics.ChartRendered(string(format))
		}

		w.Header().Set("Content-Type", format.ContentType())
		if _, err := buf.WriteTo(w); err != nil {
			ctxlog.From(r.Context()).Warn("Failed to write chart", "error", err)
		}
	}
}

// handleMonthlyXlsx serves the monthly report as a spreadsheet
func (s *Server) handleMonthlyXlsx(w http.ResponseWriter, r *http.Request) {
	q, err := parseReportQuery(r.URL.Query())
	if err != nil {
		handleError(w, r, err)
		return
	}

	report, err := s.monthly(r.Context(), q)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMonthlyXlsx(&buf, q.title(), report, usecase.BugPercent); err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="monthly.xlsx"`)
	if _, err := buf.WriteTo(w); err != nil {
		ctxlog.From(r.Context()).Warn("Failed to write spreadsheet", "error", err)
	}
}
