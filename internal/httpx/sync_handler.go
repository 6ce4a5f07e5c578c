package httpx

import (
	"net/http"
)

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.SyncSummary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	online := h.Sync.Probe(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"online":  online,
		"summary": sum,
		"pending": sum.PendingTotal(),
	})
}

// forceSync kicks a cycle on a background goroutine; 409 when a run already
// holds the single-flight guard.
func (h *Handler) forceSync(w http.ResponseWriter, r *http.Request) {
	if err := h.Sync.RunAsync(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync started"})
}
