package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

func TestRequireProjectAccessUnknownProject(t *testing.T) {
	ctx := context.Background()
	svc := NewProjectService(store.NewMemory())

	admin := authz.Identity{ID: "u1", Email: "admin@acme.com", Role: authz.RoleAdmin}
	worker := authz.Identity{ID: "u2", Email: "worker@acme.com", Role: authz.RoleUser}

	// A missing project is not-found for everyone, admins included.
	_, err := svc.RequireProjectAccess(ctx, admin, "no-such-project")
	assert.ErrorIs(t, err, authz.ErrNotFound)

	_, err = svc.RequireProjectAccess(ctx, worker, "no-such-project")
	assert.ErrorIs(t, err, authz.ErrNotFound)
}

func TestUpdateProjectMembershipFieldsNeedManagerStanding(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewProjectService(st)
	project := seedProject(t, st, map[string]any{
		"project_manager": "pm@acme.com",
		"assigned_users":  []any{"worker@acme.com"},
	})

	worker := authz.Identity{ID: "u2", Email: "worker@acme.com", Role: authz.RoleUser}
	pm := authz.Identity{ID: "u3", Email: "pm@acme.com", Role: authz.RoleUser}

	// A plain assigned user may edit ordinary fields.
	name := "Renamed Tower"
	updated, err := svc.UpdateProject(ctx, worker, project.ID, UpdateProjectInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Tower", updated.Name)

	// But not who manages the project or who is assigned to it.
	self := "worker@acme.com"
	_, err = svc.UpdateProject(ctx, worker, project.ID, UpdateProjectInput{ProjectManager: &self})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	crew := []string{"worker@acme.com", "friend@acme.com"}
	_, err = svc.UpdateProject(ctx, worker, project.ID, UpdateProjectInput{AssignedUsers: &crew})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	super := "worker@acme.com"
	_, err = svc.UpdateProject(ctx, worker, project.ID, UpdateProjectInput{Superintendent: &super})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	// Nothing leaked through.
	fresh, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "pm@acme.com", fresh.ProjectManager)
	assert.Empty(t, fresh.Superintendent)
	assert.Equal(t, []string{"worker@acme.com"}, fresh.AssignedUsers)

	// The project manager holds manager standing and may hand off.
	handoff := "newpm@acme.com"
	updated, err = svc.UpdateProject(ctx, pm, project.ID, UpdateProjectInput{ProjectManager: &handoff})
	require.NoError(t, err)
	assert.Equal(t, "newpm@acme.com", updated.ProjectManager)
}
