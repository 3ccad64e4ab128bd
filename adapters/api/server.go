// Package api exposes the analysis engine over HTTP for UI collaborators.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
	"sprawlstats/internal"
	"sprawlstats/internal/cache"
	"sprawlstats/internal/errors"
	"sprawlstats/ports"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 32 << 20

// Analyzer is the engine surface the HTTP layer depends on
type Analyzer interface {
	RunAnalysis(ctx context.Context, cfg *analysis.Config, ds *observation.Dataset, opts *analysis.Options) *analysis.Result
	GetResultByID(ctx context.Context, id string) (*analysis.Result, error)
	GetResultsByConfigID(ctx context.Context, configID string) ([]*analysis.Result, error)
	FilterDataset(ctx context.Context, datasetID string, filters []observation.Filter) ([]observation.Observation, error)
	CacheStats() cache.Stats
}

// Server routes HTTP requests onto the engine and dataset registry
type Server struct {
	router   *chi.Mux
	engine   Analyzer
	datasets ports.DatasetRepository
	events   *Broadcaster
	log      *internal.Logger
}

// NewServer creates a server with middleware and routes installed
func NewServer(engine Analyzer, datasets ports.DatasetRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   chi.NewRouter(),
		engine:   engine,
		datasets: datasets,
		events:   NewBroadcaster(32),
		log:      logger.With("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler { return s.router }

// Events returns the event broadcaster backing /api/events
func (s *Server) Events() *Broadcaster { return s.events }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)

		r.Post("/analyses", s.handleRunAnalysis)
		r.Get("/results/{id}", s.handleGetResult)
		r.Get("/configs/{id}/results", s.handleListResults)
		r.Get("/cache/stats", s.handleCacheStats)

		r.Get("/datasets", s.handleListDatasets)
		r.Post("/datasets", s.handlePutDataset)
		r.Get("/datasets/{id}", s.handleGetDataset)
		r.Delete("/datasets/{id}", s.handleDeleteDataset)
		r.Post("/datasets/{id}/points", s.handleAppendPoints)
		r.Post("/datasets/{id}/filter", s.handleFilterDataset)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunAnalysis resolves the dataset and runs one analysis. Failed
// analyses are still results and are returned with 200.
func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req RunAnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Config.DatasetID == "" {
		s.writeError(w, errors.InvalidInput("config.datasetId is required"))
		return
	}
	ds, err := s.datasets.GetDataset(r.Context(), req.Config.DatasetID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result := s.engine.RunAnalysis(r.Context(), &req.Config, ds, req.Options)
	s.events.Publish(analysisEvent(result))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.GetResultByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.engine.GetResultsByConfigID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CacheStats())
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.datasets.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]DatasetSummary, len(datasets))
	for i, ds := range datasets {
		out[i] = summarize(ds)
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePutDataset registers a dataset. A missing id is generated; a known id
// is replaced, which changes UpdatedAt and so misses any cached result.
func (s *Server) handlePutDataset(w http.ResponseWriter, r *http.Request) {
	var body observation.Dataset
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := checkKinds(body.Points); err != nil {
		s.writeError(w, err)
		return
	}

	source := body.Source
	if source == "" {
		source = observation.SourceMixed
	}
	ds := observation.NewDataset(body.Name, source)
	if body.ID != "" {
		ds.ID = body.ID
	}
	ds.Append(body.Points...)

	if err := s.datasets.Put(r.Context(), ds); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("registered dataset %s (%d points)", ds.ID, ds.Len())
	s.events.Publish(datasetEvent(EventDatasetUpdated, ds.ID, ds.Len()))
	writeJSON(w, http.StatusCreated, summarize(ds))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.datasets.GetDataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.datasets.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.events.Publish(datasetEvent(EventDatasetDeleted, id, 0))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAppendPoints(w http.ResponseWriter, r *http.Request) {
	var req AppendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := checkKinds(req.Points); err != nil {
		s.writeError(w, err)
		return
	}
	ds, err := s.datasets.AppendPoints(r.Context(), chi.URLParam(r, "id"), req.Points...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.events.Publish(datasetEvent(EventDatasetUpdated, ds.ID, ds.Len()))
	writeJSON(w, http.StatusOK, summarize(ds))
}

func (s *Server) handleFilterDataset(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	points, err := s.engine.FilterDataset(r.Context(), id, req.Filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FilterResponse{DatasetID: id, Count: len(points), Points: points})
}

// handleEvents streams analysis and dataset events until the client leaves
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, errors.InternalError("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, unsubscribe := s.events.Subscribe()
	defer unsubscribe()

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			fmt.Fprint(w, ev.ToSSEFormat())
			flusher.Flush()
		}
	}
}

func checkKinds(points []observation.Observation) error {
	for i := range points {
		if !points[i].Kind.IsValid() {
			return errors.WithCode(errors.CodeValidationError,
				core.NewParameterError(fmt.Sprintf("points[%d].kind", i), fmt.Sprintf("unknown kind %q", points[i].Kind)))
		}
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("decoding request body: %w", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed (%s): %v", code, err)
	} else {
		s.log.Debug("request rejected (%s): %v", code, err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeValidationError, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case errors.CodeTimeout:
		return http.StatusGatewayTimeout
	case errors.CodeWorkerError:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
