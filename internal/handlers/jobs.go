package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ktwom22/nhl-bot/internal/worker"
)

// EnqueueJob queues an ingest or reconcile run. 409 if that job is already
// queued or running.
// @Summary Enqueue Batch Job
// @Tags Jobs
// @Produce json
// @Param kind path string true "Job kind (ingest, reconcile)"
// @Success 202 {object} worker.Job "Queued"
// @Failure 404 {object} map[string]string "Unknown Job"
// @Failure 409 {object} map[string]string "Already Queued"
// @Failure 503 {object} map[string]string "Queue Unavailable"
// @Router /jobs/{kind} [post]
func (h *Handler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Job runner is disabled")
		return
	}

	kind := worker.Kind(chi.URLParam(r, "kind"))
	job, err := h.jobs.Enqueue(kind)
	switch {
	case errors.Is(err, worker.ErrUnknownJob):
		h.errorResponse(w, http.StatusNotFound, "Unknown job: "+string(kind))
	case errors.Is(err, worker.ErrJobBusy):
		h.errorResponse(w, http.StatusConflict, "Job already queued or running")
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
		h.errorResponse(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		h.logger.Errorw("Failed to enqueue job", "kind", kind, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to enqueue job")
	default:
		h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
			"status": "queued",
			"job":    job,
		})
	}
}
