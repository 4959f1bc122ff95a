package http

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/frontend"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
	"github.com/secmon-lab/worktime/pkg/service/chart"
	"github.com/secmon-lab/worktime/pkg/usecase"
)

// Option is a functional option for configuring Server
type Option func(*Server)

// WithRenderer replaces the chart renderer
func WithRenderer(r interfaces.ChartRenderer) Option {
	return func(s *Server) {
		s.renderer = r
	}
}

// WithMetrics sets the Prometheus collectors. /metrics is only served when set.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithChartSize sets the chart size used when a request does not ask for one
func WithChartSize(opts model.RenderOptions) Option {
	return func(s *Server) {
		s.chartSize = opts.WithDefaults()
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
	router      chi.Router
	report      interfaces.Report
	transformer *usecase.ReportTransformer
	renderer    interfaces.ChartRenderer
	metrics     *Metrics
	chartSize   model.RenderOptions
	index       *template.Template
}

// NewServer creates a new HTTP server
func NewServer(ctx context.Context, addr string, report interfaces.Report, opts ...Option) (*Server, error) {
	index, err := frontend.IndexTemplate()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse index template")
	}
	static, err := frontend.GetHTTPFS()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open static assets")
	}

	router := chi.NewRouter()
	server := &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router:      router,
		report:      report,
		transformer: usecase.NewReportTransformer(),
		renderer:    chart.NewRenderer(),
		chartSize:   model.DefaultRenderOptions(),
		index:       index,
	}
	for _, opt := range opts {
		opt(server)
	}

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	if server.metrics != nil {
		router.Use(server.metrics.Middleware)
	}
	router.Use(middleware.Recoverer)

	router.Get("/health", handleHealth)
	if server.metrics != nil {
		router.Handle("/metrics", server.metrics.Handler())
	}

	router.Get("/", server.handleIndex)
	router.Get("/user", server.handleUser)
	router.Get("/monthly", server.handleMonthly)
	router.Get("/monthly.xlsx", server.handleMonthlyXlsx)
	router.Get("/chart.svg", server.handleChart(model.ChartFormatSVG))
	router.Get("/chart.png", server.handleChart(model.ChartFormatPNG))
	router.Get("/chart.html", server.handleChart(model.ChartFormatHTML))
	router.Handle("/static/*", http.StripPrefix("/static", NewStaticHandler(static)))

	ctxlog.From(ctx).Info("HTTP routes registered",
		"addr", addr,
		"metrics", server.metrics != nil,
	)
	return server, nil
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "worktime",
	}); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
	}
}

// statusOf maps an error to the HTTP status it is reported with
func statusOf(err error) int {
	switch {
	case goerr.HasTag(err, model.ErrTagInvalidQuery):
		return http.StatusBadRequest
	case goerr.HasTag(err, model.ErrTagEmptyReport):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleError logs err and writes it with the status it maps to
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := ctxlog.From(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Debug("Request rejected", "error", err, "status", status)
	}
	writeError(w, err, status)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var message string
	if goErr := goerr.Unwrap(err); goErr != nil {
		message = goErr.Error()
	} else {
		message = err.Error()
	}

	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		// Can't get context here, so use background context
		ctxlog.From(context.Background()).Error("Failed to encode error response", "error", err)
	}
}
