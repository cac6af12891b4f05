package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape every guard rejection takes. The Error and
// Message strings are part of the client contract; clients match on them.
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. It sets the
// Content-Type header and disables caching, which every response from this
// service wants anyway.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the standard rejection body.
func WriteError(w http.ResponseWriter, code int, errStr, message string) {
	WriteJSON(w, code, ErrorBody{Error: errStr, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching of
// sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
