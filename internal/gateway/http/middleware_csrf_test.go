package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gatewayhttp "github.com/quillworks/pressgate/internal/gateway/http"
	"github.com/quillworks/pressgate/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var csrfKey = []byte("csrf-test-key-0123456789abcdef")

// issueToken runs Issue against a recorder and returns the echo half plus the
// cookie the browser would store.
func issueToken(t *testing.T, guard *gatewayhttp.CsrfGuard) (string, *http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	token, err := guard.Issue(rec)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	require.Equal(t, gatewayhttp.CsrfCookieName, cookie.Name)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	return token, cookie
}

func newCsrfHandler(guard *gatewayhttp.CsrfGuard) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return httpx.Chain(ok, guard.Middleware())
}

func TestCsrfGuardExemptions(t *testing.T) {
	t.Parallel()

	handler := newCsrfHandler(gatewayhttp.NewCsrfGuard(csrfKey, 0, false))

	t.Run("safe methods are exempt", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(method, "/v1/projects", nil))
			require.Equal(t, http.StatusOK, rec.Code, "method %s", method)
		}
	})

	t.Run("mutating request without a session cookie passes", func(t *testing.T) {
		// Bearer-only clients never hold the cookie; the guard must not
		// break them.
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/projects", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCsrfGuardRoundTrip(t *testing.T) {
	t.Parallel()

	guard := gatewayhttp.NewCsrfGuard(csrfKey, 0, false)
	handler := newCsrfHandler(guard)
	token, cookie := issueToken(t, guard)

	t.Run("header echo", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
		req.AddCookie(cookie)
		req.Header.Set(gatewayhttp.CsrfHeaderName, token)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("form field fallback", func(t *testing.T) {
		body := strings.NewReader("_csrf=" + token + "&title=Draft")
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", body)
		req.AddCookie(cookie)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCsrfGuardRejections(t *testing.T) {
	t.Parallel()

	guard := gatewayhttp.NewCsrfGuard(csrfKey, 0, false)
	handler := newCsrfHandler(guard)
	token, cookie := issueToken(t, guard)

	requireRejected := func(t *testing.T, req *http.Request) {
		t.Helper()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeError(t, rec)
		require.Equal(t, "Invalid CSRF token", body.Error)
		require.Equal(t, "CSRF token missing or mismatched", body.Message)
	}

	t.Run("cookie present but echo missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
		req.AddCookie(cookie)
		requireRejected(t, req)
	})

	t.Run("echo does not match the cookie secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
		req.AddCookie(cookie)
		req.Header.Set(gatewayhttp.CsrfHeaderName, "attacker-guess")
		requireRejected(t, req)
	})

	t.Run("cookie minted under a different key", func(t *testing.T) {
		foreign := gatewayhttp.NewCsrfGuard([]byte("some-other-key"), 0, false)
		foreignToken, foreignCookie := issueToken(t, foreign)

		req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
		req.AddCookie(foreignCookie)
		req.Header.Set(gatewayhttp.CsrfHeaderName, foreignToken)
		requireRejected(t, req)
	})

	t.Run("tampered cookie value", func(t *testing.T) {
		mangled := &http.Cookie{
			Name:  gatewayhttp.CsrfCookieName,
			Value: cookie.Value + "x",
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
		req.AddCookie(mangled)
		req.Header.Set(gatewayhttp.CsrfHeaderName, token)
		requireRejected(t, req)
	})

	t.Run("malformed cookie shape", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
		req.AddCookie(&http.Cookie{Name: gatewayhttp.CsrfCookieName, Value: "onlyonepart"})
		req.Header.Set(gatewayhttp.CsrfHeaderName, token)
		requireRejected(t, req)
	})
}

func TestCsrfGuardExpiry(t *testing.T) {
	t.Parallel()

	guard := gatewayhttp.NewCsrfGuard(csrfKey, time.Nanosecond, false)
	token, cookie := issueToken(t, guard)

	time.Sleep(5 * time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/v1/projects", nil)
	req.AddCookie(cookie)
	req.Header.Set(gatewayhttp.CsrfHeaderName, token)

	rec := httptest.NewRecorder()
	newCsrfHandler(guard).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Invalid CSRF token", decodeError(t, rec).Error)
}
