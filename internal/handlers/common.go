package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Root is the plain-text liveness page.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("NHL bot is live."))
}

// Health check endpoint
// @Summary Health Check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "OK"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready pings every configured backend and checks the games snapshot loads.
// @Summary Readiness Check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Ready"
// @Failure 503 {object} map[string]interface{} "Not Ready"
// @Router /ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]bool{}
	if h.pg != nil {
		checks["postgres"] = h.pg.Ping(ctx) == nil
	}
	if h.ch != nil {
		checks["clickhouse"] = h.ch.Ping(ctx) == nil
	}
	if h.redis != nil {
		checks["redis"] = h.redis.Ping(ctx) == nil
	}

	games := 0
	snap, err := h.picks.Games(ctx)
	checks["games"] = err == nil
	if err == nil {
		games = snap.Len()
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	resp := map[string]interface{}{
		"ready":  allHealthy,
		"checks": checks,
		"games":  games,
	}
	if h.jobs != nil {
		resp["queueDepth"] = h.jobs.QueueDepth()
	}
	h.jsonResponse(w, status, resp)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
