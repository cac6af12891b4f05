package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillworks/pressgate/internal/gateway/domain"
	"github.com/quillworks/pressgate/internal/gateway/service"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/httpx"
)

// ProjectsHandler serves the book-project CRUD under /v1/projects. Listing
// runs behind the tolerant resolver (anonymous callers get an empty list);
// everything else requires an authenticated caller, with per-resource
// ownership enforced in the service.
type ProjectsHandler struct {
	ProjectService *service.ProjectService
}

type projectRequest struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	WordCount int    `json:"wordCount"`
}

type projectResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	WordCount int    `json:"wordCount"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Title:     p.Title,
		Subtitle:  p.Subtitle,
		WordCount: p.WordCount,
	}
}

// HandleList serves GET /v1/projects.
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	projects, err := h.ProjectService.List(r.Context(), p)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		out = append(out, toProjectResponse(project))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet serves GET /v1/projects/{id}.
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	project, err := h.ProjectService.Get(r.Context(), p, r.PathValue("id"))
	if err != nil {
		writeProjectError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleCreate serves POST /v1/projects.
func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "Body must be valid JSON")
		return
	}

	project, err := h.ProjectService.Create(r.Context(), p, req.Title, req.Subtitle)
	if err != nil {
		writeProjectError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toProjectResponse(project))
}

// HandleUpdate serves PUT /v1/projects/{id}.
func (h *ProjectsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "Body must be valid JSON")
		return
	}

	project, err := h.ProjectService.Update(
		r.Context(), p, r.PathValue("id"), req.Title, req.Subtitle, req.WordCount)
	if err != nil {
		writeProjectError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleDelete serves DELETE /v1/projects/{id}.
func (h *ProjectsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p := httpx.PrincipalFromContext(r.Context())

	if err := h.ProjectService.Delete(r.Context(), p, r.PathValue("id")); err != nil {
		writeProjectError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeProjectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "Forbidden", "You do not have access to this project")
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid project", "Title is required")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Project not found", "")
	default:
		writeInternalError(w, r, err)
	}
}
