// Package server exposes consolidation and run history over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/andralbr/dataEvaluation/internal/config"
	"github.com/andralbr/dataEvaluation/internal/consolidate"
	"github.com/andralbr/dataEvaluation/internal/datefmt"
	"github.com/andralbr/dataEvaluation/internal/model"
	"github.com/andralbr/dataEvaluation/internal/pipeline"
	"github.com/andralbr/dataEvaluation/internal/report"
	"github.com/andralbr/dataEvaluation/internal/source"
	"github.com/andralbr/dataEvaluation/internal/store"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	DateFormat   string            // default for requests without date_format
	Filter       *model.TimeFilter // default window for requests without one
	MaxBodyBytes int64
}

// APIError is the JSON body of every failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

func apiError(status int, code, format string, args ...any) *echo.HTTPError {
	return echo.NewHTTPError(status, &APIError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// ConsolidateResponse is returned by POST /v1/consolidate for structured formats.
type ConsolidateResponse struct {
	RunID       string                   `json:"run_id,omitempty" yaml:"run_id,omitempty" msgpack:"run_id,omitempty"`
	Lines       int                      `json:"lines" yaml:"lines" msgpack:"lines"`
	Stats       consolidate.Stats        `json:"stats" yaml:"stats" msgpack:"stats"`
	Rows        []model.ReportRow        `json:"rows" yaml:"rows" msgpack:"rows"`
	Diagnostics []consolidate.Diagnostic `json:"diagnostics" yaml:"diagnostics" msgpack:"diagnostics"`
}

// Status is served at /healthz.
type Status struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Requests  int64     `json:"requests"`
	Runs      bool      `json:"runs"`
}

// Service provides the HTTP API.
type Service struct {
	cfg       Config
	cache     *store.Cache // nil disables run history
	echo      *echo.Echo
	startedAt time.Time
	requests  atomic.Int64
}

// New returns a service. cache may be nil, in which case the run endpoints
// answer 503 and consolidations are not recorded.
func New(cfg Config, cache *store.Cache) *Service {
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultConfig().Server.Addr
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = datefmt.Default
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 20
	}

	s := &Service{cfg: cfg, cache: cache, startedAt: time.Now()}
	s.echo = s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Service) Handler() http.Handler { return s.echo }

func (s *Service) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(strconv.FormatInt(s.cfg.MaxBodyBytes, 10)))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.requests.Add(1)
			start := time.Now()
			err := next(c)
			slog.Debug("request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(start))
			return err
		}
	})

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/consolidate", s.handleConsolidate)
	e.GET("/v1/runs", s.handleRuns)
	e.GET("/v1/runs/:id", s.handleRun)
	e.GET("/v1/runs/:id/rows", s.handleRunRows)
	return e
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	slog.Info("server listening", "addr", s.cfg.Addr, "runs", s.cache != nil)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// errorHandler renders every error as an APIError.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := &APIError{Code: "INTERNAL", Message: err.Error()}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case *APIError:
			body = m
		default:
			body = &APIError{Code: codeForStatus(status), Message: fmt.Sprint(m)}
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "err", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	}
	return "INTERNAL"
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, Status{
		Status:    "ok",
		StartedAt: s.startedAt,
		Requests:  s.requests.Load(),
		Runs:      s.cache != nil,
	})
}

// requestOptions are the query parameters of POST /v1/consolidate.
type requestOptions struct {
	format     report.Format
	dateFormat string
	filter     *model.TimeFilter
	record     bool
}

// queryFormat reads the format parameter; responses default to json.
func queryFormat(c echo.Context) (report.Format, error) {
	name := c.QueryParam("format")
	if name == "" {
		return report.JSON, nil
	}
	f, err := report.ParseFormat(name)
	if err != nil {
		return "", apiError(http.StatusBadRequest, "BAD_FORMAT", "%v", err)
	}
	return f, nil
}

func (s *Service) parseOptions(c echo.Context) (requestOptions, error) {
	opts := requestOptions{dateFormat: s.cfg.DateFormat, filter: s.cfg.Filter}

	format, err := queryFormat(c)
	if err != nil {
		return opts, err
	}
	opts.format = format

	if df := c.QueryParam("date_format"); df != "" {
		if err := datefmt.Validate(df); err != nil {
			return opts, apiError(http.StatusBadRequest, "BAD_DATE_FORMAT", "%v", err)
		}
		opts.dateFormat = df
	}

	start, end := c.QueryParam("filter_start"), c.QueryParam("filter_end")
	switch {
	case c.QueryParam("no_filter") == "true":
		opts.filter = nil
	case start != "" || end != "":
		f, err := config.ParseWindow(opts.dateFormat, start, end)
		if err != nil {
			return opts, apiError(http.StatusBadRequest, "BAD_FILTER", "%v", err)
		}
		opts.filter = f
	}

	opts.record = c.QueryParam("record") == "true"
	return opts, nil
}

// handleConsolidate consolidates the raw log text in the request body.
func (s *Service) handleConsolidate(c echo.Context) error {
	opts, err := s.parseOptions(c)
	if err != nil {
		return err
	}

	fr := pipeline.ProcessReader(c.Request().Body, opts.filter)
	if fr.Err != nil {
		return apiError(http.StatusBadRequest, "BAD_BODY", "reading body: %v", fr.Err)
	}

	var runID string
	if opts.record {
		if s.cache == nil {
			return apiError(http.StatusServiceUnavailable, "UNAVAILABLE", "run history is disabled")
		}
		fr.Input = source.InputFile{Path: "request:" + c.RealIP(), Name: "request"}
		settings, err := pipeline.SettingsHash(opts.filter)
		if err != nil {
			return err
		}
		runID, err = pipeline.RecordRun(s.cache, &pipeline.ProcessResult{
			Files:       []pipeline.FileResult{fr},
			TotalFiles:  1,
			ParsedFiles: 1,
		}, settings)
		if err != nil {
			return err
		}
	}

	c.Response().Header().Set("X-Diagnostics", strconv.Itoa(len(fr.Diagnostics)))
	if runID != "" {
		c.Response().Header().Set("X-Run-Id", runID)
	}

	resp := ConsolidateResponse{
		RunID:       runID,
		Lines:       fr.Lines,
		Stats:       fr.Stats,
		Rows:        fr.Rows,
		Diagnostics: fr.Diagnostics,
	}
	if resp.Rows == nil {
		resp.Rows = []model.ReportRow{}
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []consolidate.Diagnostic{}
	}
	return writeResponse(c, opts, resp)
}

func writeResponse(c echo.Context, opts requestOptions, resp ConsolidateResponse) error {
	switch opts.format {
	case report.JSON:
		return c.JSON(http.StatusOK, resp)
	case report.YAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return c.Blob(http.StatusOK, opts.format.ContentType(), data)
	case report.Msgpack:
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encoding msgpack: %w", err)
		}
		return c.Blob(http.StatusOK, opts.format.ContentType(), data)
	default:
		var buf bytes.Buffer
		if err := report.Encode(&buf, opts.format, resp.Rows, opts.dateFormat); err != nil {
			return err
		}
		return c.Blob(http.StatusOK, opts.format.ContentType(), buf.Bytes())
	}
}

func (s *Service) requireCache() error {
	if s.cache == nil {
		return apiError(http.StatusServiceUnavailable, "UNAVAILABLE", "run history is disabled")
	}
	return nil
}

func (s *Service) handleRuns(c echo.Context) error {
	if err := s.requireCache(); err != nil {
		return err
	}
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			return apiError(http.StatusBadRequest, "BAD_LIMIT", "limit must be an integer")
		}
		limit = n
	}
	runs, err := s.cache.ListRuns(limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Service) handleRun(c echo.Context) error {
	if err := s.requireCache(); err != nil {
		return err
	}
	run, err := s.cache.GetRun(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apiError(http.StatusNotFound, "NOT_FOUND", "run %s not found", c.Param("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Service) handleRunRows(c echo.Context) error {
	if err := s.requireCache(); err != nil {
		return err
	}
	id := c.Param("id")
	rows, err := s.cache.RunRows(id)
	if errors.Is(err, store.ErrNotFound) {
		return apiError(http.StatusNotFound, "NOT_FOUND", "run %s not found", id)
	}
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []model.ReportRow{}
	}

	format, err := queryFormat(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.Encode(&buf, format, rows, s.cfg.DateFormat); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
