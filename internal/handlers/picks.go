package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ktwom22/nhl-bot/internal/store"
)

// gamesError maps a snapshot failure to a response. A missing games file
// means ingestion has not run, which is unavailability rather than a fault.
func (h *Handler) gamesError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrGamesFileMissing) {
		h.errorResponse(w, http.StatusServiceUnavailable, "Games not available yet")
		return
	}
	h.errorResponse(w, http.StatusInternalServerError, "Failed to load games")
}

// GetGames returns the current games snapshot.
// @Summary Tonight's Games
// @Tags Picks
// @Produce json
// @Success 200 {object} models.Snapshot "Games"
// @Failure 503 {object} map[string]string "Games Not Available"
// @Router /games [get]
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	snap, err := h.picks.Games(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to load games", "error", err)
		h.gamesError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, snap)
}

// GetPick resolves ?team= and returns the pick with the reply text.
// @Summary Get Pick For Team
// @Tags Picks
// @Produce json
// @Param team query string true "Team name, nickname or city"
// @Success 200 {object} logic.PickAnswer "Pick"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Games Not Available"
// @Router /picks [get]
func (h *Handler) GetPick(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimSpace(r.URL.Query().Get("team"))
	if team == "" {
		h.errorResponse(w, http.StatusBadRequest, "team is required")
		return
	}

	ans, err := h.picks.Answer(r.Context(), team)
	if err != nil {
		h.logger.Errorw("Failed to answer pick query", "team", team, "error", err)
		h.gamesError(w, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, ans)
}

// GetPickLog lists recorded picks.
// @Summary Pick Log
// @Tags Picks
// @Produce json
// @Success 200 {object} map[string]interface{} "Picks"
// @Failure 404 {object} map[string]string "Recording Disabled"
// @Router /picks/log [get]
func (h *Handler) GetPickLog(w http.ResponseWriter, r *http.Request) {
	if h.pickLog == nil {
		h.errorResponse(w, http.StatusNotFound, "Pick recording is disabled")
		return
	}

	entries, err := h.pickLog.List(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list picks", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to list picks")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"picks": entries,
		"count": len(entries),
	})
}
