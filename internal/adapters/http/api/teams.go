package api

import (
	"context"
	"net/http"

	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
)

// TeamsDependencies runs a roster synchronously.
type TeamsDependencies interface {
	Generate(ctx context.Context, players []roster.Player) (engine.Result, error)
}

// TeamsHandler handles synchronous generation requests.
type TeamsHandler struct {
	deps    TeamsDependencies
	maxBody int64
	logger  logger.Logger
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamsDependencies, maxBody int64, l logger.Logger) *TeamsHandler {
	return &TeamsHandler{deps: deps, maxBody: maxBody, logger: l}
}

// HandleGenerate handles POST /teams. The request waits for the result and
// cancels the job when the client goes away.
func (h *TeamsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_teams"
	var req types.GenerateRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Generate(r.Context(), req.Players)
	if err != nil {
		h.logger.Debug(r.Context(), "generate failed", logger.Int("players", len(req.Players)), logger.Error(err))
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromResult(&res))
}
