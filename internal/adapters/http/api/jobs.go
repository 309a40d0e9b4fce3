package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/fairteams/internal/domain/export"
	"github.com/okian/fairteams/internal/domain/model"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
)

// JobDependencies covers the asynchronous job operations.
type JobDependencies interface {
	Submit(ctx context.Context, req types.GenerateRequest) (model.Snapshot, bool, error)
	Job(ctx context.Context, id string) (model.Snapshot, error)
	Cancel(ctx context.Context, id string) (model.Snapshot, error)
	Export(ctx context.Context, id string) (string, error)
}

// JobsHandler handles job submission, polling, cancellation and export.
type JobsHandler struct {
	deps    JobDependencies
	maxBody int64
	logger  logger.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies, maxBody int64, l logger.Logger) *JobsHandler {
	return &JobsHandler{deps: deps, maxBody: maxBody, logger: l}
}

type exportResponse struct {
	Text     string `json:"text"`
	ShareURL string `json:"share_url"`
}

// HandleSubmit handles POST /jobs. New jobs answer 202; a repeated
// request_id answers 200 with the original job.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_job"
	var req types.GenerateRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.RequestID = strings.TrimSpace(req.RequestID)

	snap, dup, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	out := types.FromSnapshot(&snap)
	out.Duplicate = dup
	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/jobs/"+snap.ID)
	writeJSON(w, status, out)
}

// HandleGet handles GET /jobs/{id}.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "api.get_job", err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromSnapshot(&snap))
}

// HandleCancel handles DELETE /jobs/{id}.
func (h *JobsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	snap, err := h.deps.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "api.cancel_job", err)
		return
	}
	h.logger.Debug(r.Context(), "job cancel requested", logger.String("jobID", snap.ID))
	writeJSON(w, http.StatusOK, types.FromSnapshot(&snap))
}

// HandleExport handles GET /jobs/{id}/export. Plain text by default; JSON
// with a share link when the client accepts application/json.
func (h *JobsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	text, err := h.deps.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, "api.export_job", err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, exportResponse{Text: text, ShareURL: export.ShareLink(text)})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
