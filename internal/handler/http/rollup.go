package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vinylen2/ellabib-server/internal/service"
)

// RollupHandler handles HTTP requests for activity and leaderboard endpoints.
type RollupHandler struct {
	service *service.RollupService
	logger  *slog.Logger
}

// NewRollupHandler creates a new rollup HTTP handler.
func NewRollupHandler(svc *service.RollupService, logger *slog.Logger) *RollupHandler {
	return &RollupHandler{
		service: svc,
		logger:  logger,
	}
}

// GetScopeTotals handles GET /api/v1/activity/{scopeType}/{id}
func (h *RollupHandler) GetScopeTotals(w http.ResponseWriter, r *http.Request) {
	scopeType := chi.URLParam(r, "scopeType")
	scopeID := chi.URLParam(r, "id")
	if scopeType == "" || scopeID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "scope type and id are required"},
		})
		return
	}

	totals, err := h.service.GetScopeTotals(r.Context(), scopeType, scopeID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: totals})
}

// GetLeaderboard handles GET /api/v1/leaderboard?scope=class&ids=a,b,c
func (h *RollupHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	scopeType := r.URL.Query().Get("scope")
	if scopeType == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "scope query parameter is required"},
		})
		return
	}

	var filterIDs []string
	if v := r.URL.Query().Get("ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filterIDs = append(filterIDs, id)
			}
		}
	}

	entries, err := h.service.GetLeaderboard(r.Context(), scopeType, filterIDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: entries})
}
