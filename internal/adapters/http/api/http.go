// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	jobqueue "github.com/okian/fairteams/internal/adapters/mq/queue"
	service "github.com/okian/fairteams/internal/app"
	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
)

const defaultMaxBody = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Generate runs a roster to completion.
	Generate(ctx context.Context, players []roster.Player) (engine.Result, error)

	// Submit queues a roster; duplicate is set when the request id was seen.
	Submit(ctx context.Context, req types.GenerateRequest) (snap model.Snapshot, duplicate bool, err error)

	Job(ctx context.Context, id string) (model.Snapshot, error)
	Cancel(ctx context.Context, id string) (model.Snapshot, error)
	Export(ctx context.Context, id string) (string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	teamsHandler  *TeamsHandler
	jobsHandler   *JobsHandler
	limiter       *RateLimiter

	rateRPS   float64
	rateBurst int
	maxBody   int64
	logger    logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxBody: defaultMaxBody, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.teamsHandler = NewTeamsHandler(deps, s.maxBody, s.logger)
	s.jobsHandler = NewJobsHandler(deps, s.maxBody, s.logger)
	s.limiter = NewRateLimiter(s.rateRPS, s.rateBurst)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /teams", MetricsMiddleware(s.limiter.Wrap(s.teamsHandler.HandleGenerate, "teams"), "teams"))
	mux.HandleFunc("POST /jobs", MetricsMiddleware(s.limiter.Wrap(s.jobsHandler.HandleSubmit, "jobs"), "jobs"))
	mux.HandleFunc("GET /jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleGet, "job"))
	mux.HandleFunc("DELETE /jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleCancel, "job"))
	mux.HandleFunc("GET /jobs/{id}/export", MetricsMiddleware(s.jobsHandler.HandleExport, "export"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// writeDomainError maps errors from Dependencies to a status and code.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var sizeErr *roster.InvalidRosterSizeError
	switch {
	case errors.As(err, &sizeErr):
		writeJSON(w, http.StatusUnprocessableEntity, types.ErrorResponse{
			Code:    "invalid_roster_size",
			Message: sizeErr.Error(),
			Count:   &sizeErr.Count,
			Min:     &sizeErr.Min,
			Max:     &sizeErr.Max,
		})
	case errors.Is(err, roster.ErrNegativeScore), errors.Is(err, roster.ErrInvalidPosition):
		writeError(w, http.StatusBadRequest, "invalid_player", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, jobqueue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrJobNotFinished):
		writeError(w, http.StatusConflict, "not_finished", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, jobqueue.ErrQueueClosed),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("decode body: trailing data")
	}
	return nil
}
