package http

import (
	"net/http"

	"github.com/quillworks/pressgate/pkg/httpx"
)

// CsrfTokenHandler serves GET /v1/csrf-token: it mints a double-submit pair,
// setting the httpOnly cookie half and returning the echo half in the body.
// Browser clients call this once per session and send the value back in the
// X-CSRF-Token header on every mutating request.
type CsrfTokenHandler struct {
	Guard *CsrfGuard
}

func (h *CsrfTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := h.Guard.Issue(w)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}
