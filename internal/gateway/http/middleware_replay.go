package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quillworks/pressgate/internal/gateway/ledger"
	"github.com/quillworks/pressgate/pkg/httpx"
	"github.com/quillworks/pressgate/pkg/slogx"
)

// Header names the replay guard consumes. The nonce is an opaque unique
// string (clients send UUID v4, but only uniqueness is enforced); the
// timestamp is epoch milliseconds as stamped by the caller's clock.
const (
	HeaderNonce     = "X-Nonce"
	HeaderTimestamp = "X-Timestamp"
)

// ReplayConfig tunes the replay guard. The windows and skew are operational
// knobs, not load-bearing constants; the defaults mirror production tuning.
type ReplayConfig struct {
	// DefaultWindow is how far in the past a request timestamp may lie.
	DefaultWindow time.Duration // default 5m

	// UploadWindow replaces DefaultWindow on slow upload-style routes,
	// matched by UploadPathHint as a path substring.
	UploadWindow   time.Duration // default 10m
	UploadPathHint string        // default "/upload"

	// FutureSkew tolerates caller clocks running ahead of ours.
	FutureSkew time.Duration // default 60s

	// BypassPaths skip the guard regardless of method (health checks, the
	// CSRF token endpoint).
	BypassPaths []string
}

func (cfg ReplayConfig) withDefaults() ReplayConfig {
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = 5 * time.Minute
	}
	if cfg.UploadWindow <= 0 {
		cfg.UploadWindow = 10 * time.Minute
	}
	if cfg.UploadPathHint == "" {
		cfg.UploadPathHint = "/upload"
	}
	if cfg.FutureSkew <= 0 {
		cfg.FutureSkew = time.Minute
	}
	return cfg
}

// ReplayGuard rejects stale and duplicate mutating requests. It is a linear
// gate: a rejected caller retries with a fresh nonce and current timestamp,
// there is no recovery path. Safe methods (GET, HEAD, OPTIONS) bypass it
// entirely.
//
// Validation order is part of the contract: missing headers, unparseable
// timestamp, too old, in the future, duplicate nonce. Each rejection carries
// a distinguishable error string.
func ReplayGuard(led ledger.Ledger, cfg ReplayConfig) httpx.Middleware {
	cfg = cfg.withDefaults()

	bypass := make(map[string]struct{}, len(cfg.BypassPaths))
	for _, p := range cfg.BypassPaths {
		bypass[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := bypass[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			log := slogx.FromContext(r.Context())

			nonce := r.Header.Get(HeaderNonce)
			rawTimestamp := r.Header.Get(HeaderTimestamp)
			if nonce == "" || rawTimestamp == "" {
				httpx.WriteError(w, http.StatusBadRequest,
					"Missing security headers",
					"Request must include x-nonce and x-timestamp headers")
				return
			}

			sentAt, err := strconv.ParseInt(rawTimestamp, 10, 64)
			if err != nil {
				httpx.WriteError(w, http.StatusBadRequest,
					"Invalid timestamp",
					"Timestamp must be a valid number")
				return
			}

			window := cfg.DefaultWindow
			if strings.Contains(r.URL.Path, cfg.UploadPathHint) {
				window = cfg.UploadWindow
			}

			now := time.Now()
			age := now.UnixMilli() - sentAt

			if age > window.Milliseconds() {
				log.Warn("stale request rejected",
					"age_ms", age, "window", window, "nonce", nonce)
				httpx.WriteError(w, http.StatusBadRequest,
					"Request too old",
					fmt.Sprintf("Request timestamp is more than %d minutes old",
						int(window.Minutes())))
				return
			}

			if -age > cfg.FutureSkew.Milliseconds() {
				log.Warn("future-dated request rejected", "skew_ms", -age, "nonce", nonce)
				httpx.WriteError(w, http.StatusBadRequest,
					"Invalid timestamp",
					"Request timestamp is in the future")
				return
			}

			meta := ledger.Metadata{
				Method:   r.Method,
				Path:     r.URL.Path,
				SourceIP: httpx.IPKeyExtractor(r),
			}
			admitted, err := led.TryAdmit(r.Context(), nonce, meta, now)
			if err != nil {
				// Fail closed: if the ledger cannot answer, nothing mutates.
				log.Error("nonce ledger unavailable", "err", err)
				httpx.WriteError(w, http.StatusServiceUnavailable,
					"Replay protection unavailable",
					"Unable to verify request uniqueness. Please retry.")
				return
			}
			if !admitted {
				log.Warn("duplicate nonce rejected",
					"nonce", nonce, "method", meta.Method, "path", meta.Path, "source_ip", meta.SourceIP)
				httpx.WriteError(w, http.StatusBadRequest,
					"Duplicate request",
					"Nonce has already been used. Please retry your request.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
