package store

import (
	"context"
	"errors"

	"github.com/quillworks/pressgate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the gateway's collaborators.
// The authenticity core itself keeps no persistent state; these repositories
// back the account and project endpoints the guards protect.
type Store interface {
	Users() Users
	Projects() Projects

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateDisplayName mutates the display name and bumps updated_at.
	UpdateDisplayName(ctx context.Context, userID, displayName string) error

	// DeleteUser removes a user; projects cascade per schema.
	DeleteUser(ctx context.Context, userID string) error
}

type Projects interface {
	// GetProjectByID returns a project by id.
	GetProjectByID(ctx context.Context, id string) (domain.Project, error)

	// ListProjectsByOwner returns the owner's projects, newest first.
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)

	// ListProjects returns every project, newest first. Admin listings only.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// CreateProject inserts a new project.
	CreateProject(ctx context.Context, p domain.Project) error

	// UpdateProject mutates title, subtitle and word count.
	UpdateProject(ctx context.Context, p domain.Project) error

	// DeleteProject removes a project.
	DeleteProject(ctx context.Context, id string) error
}
