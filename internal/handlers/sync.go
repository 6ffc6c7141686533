package handlers

import (
	"net/http"
)

// triggerSync queues an immediate sync cycle. The cycle runs in the
// background; clients follow progress over the event stream or poll the
// status endpoint.
func (r *Router) triggerSync(w http.ResponseWriter, req *http.Request) {
	if r.syncSvc.Engine().InProgress() {
		respondJSON(w, http.StatusAccepted, map[string]string{
			"status": "already running",
		})
		return
	}
	r.syncSvc.TriggerSync()
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "queued",
	})
}

// syncStatus reports whether a cycle is running and the last outcome.
func (r *Router) syncStatus(w http.ResponseWriter, req *http.Request) {
	pending, err := r.failed.CountPending()
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"in_progress":    r.syncSvc.Engine().InProgress(),
		"last_result":    r.syncSvc.Engine().LastResult(),
		"pending_failed": pending,
	})
}

// listFailedOps returns the retry queue, oldest first.
func (r *Router) listFailedOps(w http.ResponseWriter, req *http.Request) {
	ops, err := r.failed.ListPending()
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ops)
}
