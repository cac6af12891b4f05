package service_test

import (
	"context"
	"testing"

	"github.com/quillworks/pressgate/internal/gateway/domain"
	"github.com/quillworks/pressgate/internal/gateway/service"
	"github.com/quillworks/pressgate/internal/gateway/store"
	"github.com/quillworks/pressgate/pkg/idx"
	"github.com/quillworks/pressgate/pkg/tokenx"
	"github.com/stretchr/testify/require"
)

func newProjectService() (*service.ProjectService, *memStore) {
	ms := newMemStore()
	return &service.ProjectService{Store: ms}, ms
}

func principal(role tokenx.Role) tokenx.Principal {
	return tokenx.Principal{SubjectID: idx.New().String(), Role: role}
}

func seedProject(t *testing.T, ms *memStore, ownerID, title string) domain.Project {
	t.Helper()
	p := domain.Project{ID: idx.New().String(), OwnerID: ownerID, Title: title}
	require.NoError(t, ms.projects.CreateProject(context.Background(), p))
	return p
}

func TestProjectServiceList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, ms := newProjectService()
	alice := principal(tokenx.RoleUser)
	bob := principal(tokenx.RoleUser)
	admin := principal(tokenx.RoleAdmin)

	seedProject(t, ms, alice.SubjectID, "Alice One")
	seedProject(t, ms, alice.SubjectID, "Alice Two")
	seedProject(t, ms, bob.SubjectID, "Bob One")

	aliceList, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, aliceList, 2)

	adminList, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, adminList, 3)

	anonList, err := svc.List(ctx, tokenx.Anonymous())
	require.NoError(t, err)
	require.Empty(t, anonList)
}

func TestProjectServiceCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newProjectService()
	alice := principal(tokenx.RoleUser)

	t.Run("trims and stores", func(t *testing.T) {
		project, err := svc.Create(ctx, alice, "  My Book  ", " Working subtitle ")
		require.NoError(t, err)
		require.Equal(t, "My Book", project.Title)
		require.Equal(t, "Working subtitle", project.Subtitle)
		require.Equal(t, alice.SubjectID, project.OwnerID)
		require.NotEmpty(t, project.ID)
	})

	t.Run("blank title", func(t *testing.T) {
		_, err := svc.Create(ctx, alice, "   ", "")
		require.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := svc.Create(ctx, tokenx.Anonymous(), "Ghost Book", "")
		require.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestProjectServiceOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, ms := newProjectService()
	alice := principal(tokenx.RoleUser)
	bob := principal(tokenx.RoleUser)
	admin := principal(tokenx.RoleAdmin)

	project := seedProject(t, ms, alice.SubjectID, "Alice's Book")

	t.Run("owner can read", func(t *testing.T) {
		got, err := svc.Get(ctx, alice, project.ID)
		require.NoError(t, err)
		require.Equal(t, project.ID, got.ID)
	})

	t.Run("non-owner cannot read", func(t *testing.T) {
		_, err := svc.Get(ctx, bob, project.ID)
		require.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("admin can read", func(t *testing.T) {
		_, err := svc.Get(ctx, admin, project.ID)
		require.NoError(t, err)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.Get(ctx, alice, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("non-owner cannot update", func(t *testing.T) {
		_, err := svc.Update(ctx, bob, project.ID, "Hijacked", "", 0)
		require.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("owner updates metadata", func(t *testing.T) {
		updated, err := svc.Update(ctx, alice, project.ID, "Retitled", "New subtitle", 42000)
		require.NoError(t, err)
		require.Equal(t, "Retitled", updated.Title)
		require.Equal(t, 42000, updated.WordCount)

		// Empty title on update keeps the existing one.
		kept, err := svc.Update(ctx, alice, project.ID, "", "", 42000)
		require.NoError(t, err)
		require.Equal(t, "Retitled", kept.Title)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(ctx, bob, project.ID), service.ErrForbidden)
	})

	t.Run("admin deletes", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, admin, project.ID))
		_, err := ms.projects.GetProjectByID(ctx, project.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
