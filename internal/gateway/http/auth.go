package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillworks/pressgate/internal/gateway/service"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/httpx"
	"github.com/quillworks/pressgate/pkg/slogx"
)

// AuthHandler serves the account endpoints under /v1/auth.
type AuthHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

// HandleRegister serves POST /v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "Body must be valid JSON")
		return
	}

	pair, err := h.AuthService.Register(r.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteError(w, http.StatusConflict, "Email already registered", "")
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusBadRequest, "Invalid registration", "Email and password are required")
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, pair)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin serves POST /v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "Body must be valid JSON")
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials", "")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh serves POST /v1/auth/refresh. The error surface is part of
// the client contract: a missing token is a 400 mentioning "Refresh token is
// required", a bad one a 401 mentioning "Invalid refresh token", an expired
// one a distinguishable 401.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	// A malformed body and an absent token get the same answer, so the
	// decode error itself is uninteresting.
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "", "Refresh token is required")
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshExpired):
			httpx.WriteError(w, http.StatusUnauthorized, "", "Refresh token expired")
		case errors.Is(err, service.ErrInvalidRefresh):
			httpx.WriteError(w, http.StatusUnauthorized, "", "Invalid refresh token")
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

type meResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// HandleMe serves GET /v1/auth/me, behind the strict resolver.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	user, err := h.AuthService.Me(r.Context(), p.SubjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "User not found", "")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
}
