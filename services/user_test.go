package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

func TestEnsureUserMirrorsOnFirstSight(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewUserService(st)

	identity := authz.Identity{ID: "u1", Email: "jane.doe@acme-steel.com", Role: authz.RoleUser}
	svc.EnsureUser(ctx, identity)

	recs, err := st.Filter(ctx, db.KindUser, map[string]any{"email": identity.Email})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	user := db.UserFromRecord(recs[0])
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, "Acme Steel", user.Company)
	assert.Equal(t, authz.RoleUser, user.Role)

	// A second sighting does not duplicate the mirror.
	svc.EnsureUser(ctx, identity)
	recs, err = st.Filter(ctx, db.KindUser, map[string]any{"email": identity.Email})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestEnsureUserSyncsRoleChange(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewUserService(st)

	identity := authz.Identity{ID: "u1", Email: "jane@acme.com", Role: authz.RoleUser}
	svc.EnsureUser(ctx, identity)

	identity.Role = authz.RoleAdmin
	svc.EnsureUser(ctx, identity)

	recs, err := st.Filter(ctx, db.KindUser, map[string]any{"email": identity.Email})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, authz.RoleAdmin, db.UserFromRecord(recs[0]).Role)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(store.NewMemory())

	_, err := svc.ListUsers(ctx, authz.Identity{ID: "u1", Email: "a@b.com", Role: authz.RoleUser})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestNameAndCompanyDerivation(t *testing.T) {
	assert.Equal(t, "Jane Doe", nameFromEmail("jane.doe@acme.com"))
	assert.Equal(t, "Bob Smith", nameFromEmail("bob_smith@x.io"))
	assert.Equal(t, "plainstring", nameFromEmail("plainstring"))

	assert.Equal(t, "Acme Steel", companyFromEmail("x@acme-steel.com"))
	assert.Equal(t, "Acme", companyFromEmail("x@acme.co.uk"))
	assert.Equal(t, "", companyFromEmail("no-at-sign"))
}
