package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quillworks/pressgate/pkg/cryptox"
	"github.com/quillworks/pressgate/pkg/httpx"
	"github.com/quillworks/pressgate/pkg/slogx"
)

const (
	// CsrfCookieName holds the server half of the double-submit pair. The
	// cookie is httpOnly, so cross-origin script can never read it.
	CsrfCookieName = "XSRF-TOKEN"

	// CsrfHeaderName is where clients echo the token value. A "_csrf" form
	// field is accepted as fallback for form posts.
	CsrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "_csrf"
)

// DefaultCsrfTTL bounds how long an issued CSRF cookie stays valid.
const DefaultCsrfTTL = 24 * time.Hour

// CsrfGuard implements the double-submit-cookie defense. Issue writes a
// cookie of the form secret.issuedAt.mac, where mac is an HMAC over the
// first two parts keyed with a server-held key; Validate requires the echoed
// value to match the cookie's secret and the cookie to pass the generation
// check. Orthogonal to the replay guard; both may apply to one request.
type CsrfGuard struct {
	key    []byte
	ttl    time.Duration
	secure bool // mark cookies Secure (production)
}

// NewCsrfGuard creates a guard. The key must be non-empty; that is enforced
// at startup by config validation, not here.
func NewCsrfGuard(key []byte, ttl time.Duration, secure bool) *CsrfGuard {
	if ttl <= 0 {
		ttl = DefaultCsrfTTL
	}
	return &CsrfGuard{key: key, ttl: ttl, secure: secure}
}

// Issue generates a fresh token, sets the cookie half on w and returns the
// echo half for the response body.
func (g *CsrfGuard) Issue(w http.ResponseWriter) (string, error) {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return "", err
	}

	issuedAt := strconv.FormatInt(time.Now().Unix(), 10)
	cookieValue := secret + "." + issuedAt + "." + g.sign(secret, issuedAt)

	http.SetCookie(w, &http.Cookie{
		Name:     CsrfCookieName,
		Value:    cookieValue,
		Path:     "/",
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return secret, nil
}

// Middleware validates the double-submit pair on mutating requests. Safe
// methods (GET, HEAD, OPTIONS) are exempt.
func (g *CsrfGuard) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CsrfCookieName)
			if err != nil {
				// No session cookie means no browser flow is in play; the
				// request is authenticated by bearer token alone, which an
				// attacker's page cannot attach cross-origin.
				next.ServeHTTP(w, r)
				return
			}

			if err := g.validate(r, cookie); err != nil {
				slogx.FromContext(r.Context()).Warn("csrf validation failed", "err", err)
				httpx.WriteError(w, http.StatusForbidden,
					"Invalid CSRF token",
					"CSRF token missing or mismatched")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *CsrfGuard) validate(r *http.Request, cookie *http.Cookie) error {
	parts := strings.Split(cookie.Value, ".")
	if len(parts) != 3 {
		return fmt.Errorf("csrf cookie malformed")
	}
	secret, issuedAt, mac := parts[0], parts[1], parts[2]

	// Generation check: the cookie must be one we minted.
	if !hmac.Equal([]byte(mac), []byte(g.sign(secret, issuedAt))) {
		return fmt.Errorf("csrf cookie failed generation check")
	}

	seconds, err := strconv.ParseInt(issuedAt, 10, 64)
	if err != nil {
		return fmt.Errorf("csrf cookie timestamp malformed")
	}
	if time.Since(time.Unix(seconds, 0)) > g.ttl {
		return fmt.Errorf("csrf cookie expired")
	}

	echoed := r.Header.Get(CsrfHeaderName)
	if echoed == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		echoed = r.PostFormValue(csrfFormField)
	}
	if echoed == "" {
		return fmt.Errorf("csrf token not supplied")
	}

	if subtle.ConstantTimeCompare([]byte(echoed), []byte(secret)) != 1 {
		return fmt.Errorf("csrf token mismatch")
	}
	return nil
}

func (g *CsrfGuard) sign(secret, issuedAt string) string {
	h := hmac.New(sha256.New, g.key)
	h.Write([]byte(secret + "." + issuedAt))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
