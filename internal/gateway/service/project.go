package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quillworks/pressgate/internal/gateway/domain"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/httpx"
	"github.com/quillworks/pressgate/pkg/idx"
	"github.com/quillworks/pressgate/pkg/tokenx"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid_input")
)

// ProjectService is the book-project CRUD behind the guards. Every mutation
// re-checks the caller's ownership against the stored record; the middleware
// chain only established who the caller is, not what they may touch.
type ProjectService struct {
	Store store.Store
}

// List returns the projects visible to p: admins see everything, users see
// their own, anonymous callers see none.
func (s *ProjectService) List(ctx context.Context, p tokenx.Principal) ([]domain.Project, error) {
	switch {
	case p.IsAdmin():
		return s.Store.Projects().ListProjects(ctx)
	case p.IsAnonymous():
		return nil, nil
	default:
		return s.Store.Projects().ListProjectsByOwner(ctx, p.SubjectID)
	}
}

// Get loads a project if p owns it or is an admin.
func (s *ProjectService) Get(ctx context.Context, p tokenx.Principal, id string) (domain.Project, error) {
	project, err := s.Store.Projects().GetProjectByID(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if !httpx.RequireOwnershipOrAdmin(p, project.OwnerID) {
		return domain.Project{}, ErrForbidden
	}
	return project, nil
}

// Create inserts a project owned by p.
func (s *ProjectService) Create(ctx context.Context, p tokenx.Principal, title, subtitle string) (domain.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Project{}, ErrInvalidInput
	}
	if p.IsAnonymous() {
		return domain.Project{}, ErrForbidden
	}

	project := domain.Project{
		ID:       idx.New().String(),
		OwnerID:  p.SubjectID,
		Title:    title,
		Subtitle: strings.TrimSpace(subtitle),
	}
	if err := s.Store.Projects().CreateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// Update mutates a project's metadata, owner-or-admin only.
func (s *ProjectService) Update(ctx context.Context, p tokenx.Principal, id, title, subtitle string, wordCount int) (domain.Project, error) {
	project, err := s.Get(ctx, p, id)
	if err != nil {
		return domain.Project{}, err
	}

	if title = strings.TrimSpace(title); title != "" {
		project.Title = title
	}
	project.Subtitle = strings.TrimSpace(subtitle)
	if wordCount >= 0 {
		project.WordCount = wordCount
	}

	if err := s.Store.Projects().UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// Delete removes a project, owner-or-admin only.
func (s *ProjectService) Delete(ctx context.Context, p tokenx.Principal, id string) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	return s.Store.Projects().DeleteProject(ctx, id)
}
