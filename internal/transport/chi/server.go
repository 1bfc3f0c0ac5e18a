package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	domopts "github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	logpkg "github.com/kailas-cloud/kwharvest/internal/logger"
	"github.com/kailas-cloud/kwharvest/internal/usecase/analyze"
	"github.com/kailas-cloud/kwharvest/internal/usecase/expand"
	"github.com/kailas-cloud/kwharvest/internal/usecase/export"
	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
	healthuc "github.com/kailas-cloud/kwharvest/internal/usecase/health"
	optionsuc "github.com/kailas-cloud/kwharvest/internal/usecase/options"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the kwharvest HTTP API.
type Server struct {
	harvest       *harvest.Service
	options       *optionsuc.Service
	analyzer      *analyze.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	harvestSvc *harvest.Service,
	options *optionsuc.Service,
	analyzer *analyze.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		harvest:  harvestSvc,
		options:  options,
		analyzer: analyzer,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		unknownProviderHandler,
		sentinelHandler(domain.ErrRunNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrRunNotActive, http.StatusConflict, ErrorCodeRunNotActive),
		sentinelHandler(domain.ErrRunActive, http.StatusConflict, ErrorCodeRunActive),
		sentinelHandler(domain.ErrEmptySeed, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrNoProviders, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrInvalidOptions, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrInvalidAnalysisMode, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrNothingToAnalyze, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrAnalyzerNotConfigured,
			http.StatusServiceUnavailable, ErrorCodeAnalyzerNotConfigured),
		sentinelHandler(domain.ErrAnalyzerFailed, http.StatusBadGateway, ErrorCodeAnalyzerFailed),
	}
	return s
}

// Routes registers every API route on r.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/options", s.GetOptions)
	r.Put("/options", s.PutOptions)
	r.Get("/expand", s.Expand)

	r.Post("/runs", s.StartRun)
	r.Get("/runs", s.ListRuns)
	r.Get("/runs/{id}", s.GetRun)
	r.Delete("/runs/{id}", s.DeleteRun)
	r.Post("/runs/{id}/cancel", s.CancelRun)
	r.Get("/runs/{id}/keywords", s.ListKeywords)
	r.Get("/runs/{id}/clusters", s.ListClusters)
	r.Get("/runs/{id}/export.csv", s.ExportCSV)
	r.Get("/runs/{id}/export.txt", s.ExportText)
	r.Post("/runs/{id}/analyze", s.Analyze)
}

// Handler returns a router serving the API.
func (s *Server) Handler() http.Handler {
	r := chirouter.NewRouter()
	s.Routes(r)
	return r
}

// GetOptions handles GET /options.
func (s *Server) GetOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.options.Load(r.Context()))
}

// PutOptions handles PUT /options.
func (s *Server) PutOptions(w http.ResponseWriter, r *http.Request) {
	var req domopts.SearchOptions
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	saved, err := s.options.Save(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// StartRun handles POST /runs. A body carries new options and is saved first;
// without one the saved options are used.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	var req, opts domopts.SearchOptions
	switch err := decodeBody(w, r, &req); {
	case errors.Is(err, io.EOF):
		opts = s.options.Load(r.Context())
	case err != nil:
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	default:
		saved, err := s.options.Save(r.Context(), req)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		opts = saved
	}

	run, err := s.harvest.Start(r.Context(), opts)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/runs/"+run.ID())
	writeJSON(w, http.StatusAccepted, runToResponse(run))
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.harvest.List(r.Context())
	items := make([]Run, len(runs))
	for i, run := range runs {
		items[i] = runToResponse(run)
	}
	writeJSON(w, http.StatusOK, RunListResponse{Items: items})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.harvest.Get(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runToResponse(run))
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.harvest.Delete(r.Context(), chirouter.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelRun handles POST /runs/{id}/cancel.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.harvest.Cancel(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, runToResponse(run))
}

// keywordParams are the query parameters of GET /runs/{id}/keywords.
type keywordParams struct {
	Parent  *string
	Tag     *string
	Cluster *string
	Q       *string
	Limit   *int
}

func bindKeywordParams(r *http.Request) (keywordParams, error) {
	var p keywordParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "parent", q, &p.Parent); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "tag", q, &p.Tag); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "cluster", q, &p.Cluster); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &p.Q); err != nil {
		return p, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		return p, err
	}
	if p.Limit != nil && *p.Limit < 0 {
		return p, errors.New("limit must not be negative")
	}
	return p, nil
}

func (p keywordParams) filter() keyword.Filter {
	var f keyword.Filter
	if p.Parent != nil {
		f.Parent = *p.Parent
	}
	if p.Tag != nil {
		f.Tag = query.Tag(*p.Tag)
	}
	if p.Cluster != nil {
		f.Cluster = *p.Cluster
	}
	if p.Q != nil {
		f.Text = *p.Q
	}
	return f
}

// ListKeywords handles GET /runs/{id}/keywords.
func (s *Server) ListKeywords(w http.ResponseWriter, r *http.Request) {
	params, err := bindKeywordParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query parameter: "+err.Error())
		return
	}
	run, err := s.harvest.Get(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	records := run.Store().List(params.filter())
	total := len(records)
	if params.Limit != nil && *params.Limit > 0 && *params.Limit < total {
		records = records[:*params.Limit]
	}
	items := make([]Keyword, len(records))
	for i, rec := range records {
		items[i] = keywordToResponse(rec)
	}
	writeJSON(w, http.StatusOK, KeywordListResponse{Total: total, Items: items})
}

// ListClusters handles GET /runs/{id}/clusters.
func (s *Server) ListClusters(w http.ResponseWriter, r *http.Request) {
	run, err := s.harvest.Get(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	clusters := export.Clusters(run.Store().List(keyword.Filter{}))
	if clusters == nil {
		clusters = []export.Cluster{}
	}
	writeJSON(w, http.StatusOK, ClusterListResponse{Items: clusters})
}

// ExportCSV handles GET /runs/{id}/export.csv.
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

// ExportText handles GET /runs/{id}/export.txt.
func (s *Server) ExportText(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "txt", "text/plain; charset=utf-8", export.WriteText)
}

func (s *Server) export(
	w http.ResponseWriter, r *http.Request, ext, contentType string,
	write func(io.Writer, []keyword.Record) error,
) {
	var ids *[]string
	if err := runtime.BindQueryParameter("form", true, false, "id", r.URL.Query(), &ids); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query parameter: "+err.Error())
		return
	}
	run, err := s.harvest.Get(r.Context(), chirouter.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var f keyword.Filter
	if ids != nil {
		f.IDs = *ids
	}
	var buf bytes.Buffer
	if err := write(&buf, run.Store().List(f)); err != nil {
		s.handleDomainError(w, r, fmt.Errorf("export run %q: %w", run.ID(), err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "keywords-"+run.ID()+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Analyze handles POST /runs/{id}/analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	mode, err := analyze.ParseMode(req.Mode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), chirouter.URLParam(r, "id"), mode, req.IDs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeToResponse(res))
}

// strategyParams are the strategy flags of GET /expand.
var strategyParams = []struct {
	name string
	set  func(*domopts.Strategies, bool)
}{
	{"fa_az", func(s *domopts.Strategies, v bool) { s.PersianAZ = v }},
	{"fa_double", func(s *domopts.Strategies, v bool) { s.PersianDouble = v }},
	{"en_az_prefix", func(s *domopts.Strategies, v bool) { s.EnglishPrefix = v }},
	{"en_az_suffix", func(s *domopts.Strategies, v bool) { s.EnglishSuffix = v }},
	{"questions", func(s *domopts.Strategies, v bool) { s.Questions = v }},
	{"middle_gap", func(s *domopts.Strategies, v bool) { s.MiddleGap = v }},
}

// Expand handles GET /expand. It previews the queue without fetching anything.
func (s *Server) Expand(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var seed string
	if err := runtime.BindQueryParameter("form", true, true, "seed", q, &seed); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query parameter: "+err.Error())
		return
	}
	var strategies domopts.Strategies
	for _, p := range strategyParams {
		var v *bool
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, &v); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query parameter: "+err.Error())
			return
		}
		if v != nil {
			p.set(&strategies, *v)
		}
	}

	items, err := expand.Expand(seed, strategies)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out := make([]QueueItem, len(items))
	for i, item := range items {
		out[i] = queueItemToResponse(item)
	}
	writeJSON(w, http.StatusOK, ExpandResponse{Total: len(out), Items: out})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody decodes a JSON body. An empty body yields io.EOF.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRunNotFound,
		domain.ErrRunNotActive,
		domain.ErrRunActive,
		domain.ErrEmptySeed,
		domain.ErrNoProviders,
		domain.ErrInvalidOptions,
		domain.ErrInvalidAnalysisMode,
		domain.ErrNothingToAnalyze,
		domain.ErrAnalyzerNotConfigured,
		domain.ErrAnalyzerFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// unknownProviderHandler names the rejected provider id in the message.
func unknownProviderHandler(w http.ResponseWriter, err error, _ string) bool {
	var upe *domain.UnknownProviderError
	if !errors.As(err, &upe) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":     ErrorCodeBadRequest,
		"message":  upe.Error(),
		"provider": upe.Provider,
	})
	return true
}

// handleDomainError logs through the request logger so the entry carries the request id.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			logger.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
			return
		}
	}
	logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
