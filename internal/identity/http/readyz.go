package http

import (
	"net/http"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/store"
	"github.com/agentdeskhq/agentdesk/pkg/httpx"
	"github.com/agentdeskhq/agentdesk/pkg/jwtx"
)

// ReadyzHandler is the readiness probe: checks the database and that the
// signing key is loaded, returning 503 while either is unavailable.
func ReadyzHandler(startTime time.Time, version string, st store.Store, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
