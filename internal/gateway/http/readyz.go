package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/quillworks/pressgate/internal/gateway/ledger"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/httpx"
)

// ReadyzHandler is the readiness probe: it verifies the user store and
// reports the nonce ledger's diagnostics when the driver exposes them.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	led ledger.Ledger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &healthChecks{
			Database:    "ok",
			NonceLedger: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		switch l := led.(type) {
		case *ledger.Redis:
			if err := l.Ping(r.Context()); err != nil {
				checks.NonceLedger = "error: " + err.Error()
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		case ledger.StatsProvider:
			stats := l.Stats(time.Now())
			checks.NonceLedger = fmt.Sprintf("ok (%d tracked)", stats.Size)
		}

		httpx.WriteJSON(w, statusCode, healthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
