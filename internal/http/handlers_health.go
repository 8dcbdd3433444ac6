package httpx

import (
	"io"
	"net/http"
)

const healthBody = `{"status":"ok","service":"leadgrid"}`

// healthHandler answers liveness probes. It does not touch the database:
// a wedged store surfaces through job processing, not through the probe.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, healthBody)
}
