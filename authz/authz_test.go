package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
)

func TestEvaluateDecisionOrder(t *testing.T) {
	project := db.Project{
		ID:             "p1",
		ProjectManager: "pm@acme.com",
		Superintendent: "super@acme.com",
		AssignedUsers:  []string{"worker@acme.com"},
	}

	tests := []struct {
		name     string
		identity Identity
		allow    bool
	}{
		{"admin always allowed", Identity{ID: "u1", Email: "anyone@else.com", Role: RoleAdmin}, true},
		{"project manager allowed", Identity{ID: "u2", Email: "pm@acme.com", Role: RoleUser}, true},
		{"superintendent allowed", Identity{ID: "u3", Email: "super@acme.com", Role: RoleUser}, true},
		{"assigned user allowed", Identity{ID: "u4", Email: "worker@acme.com", Role: RoleUser}, true},
		{"stranger denied", Identity{ID: "u5", Email: "stranger@acme.com", Role: RoleUser}, false},
		{"unresolved identity denied", Identity{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.identity, project)
			assert.Equal(t, tt.allow, d.Allow)
			assert.NotEmpty(t, d.Reason)
		})
	}
}

func TestEvaluateEmptyMembership(t *testing.T) {
	// A project with no PM, super, or assigned users is only visible
	// to admins.
	project := db.Project{ID: "p1"}

	assert.False(t, Evaluate(Identity{ID: "u1", Email: "a@b.com", Role: RoleUser}, project).Allow)
	assert.True(t, Evaluate(Identity{ID: "u2", Email: "a@b.com", Role: RoleAdmin}, project).Allow)
}

func TestCheckErrorKinds(t *testing.T) {
	project := db.Project{ID: "p1", ProjectManager: "pm@acme.com"}

	err := Check(Identity{}, project)
	assert.True(t, errors.Is(err, ErrUnauthenticated))

	err = Check(Identity{ID: "u1", Email: "x@y.com", Role: RoleUser}, project)
	assert.True(t, errors.Is(err, ErrForbidden))

	assert.NoError(t, Check(Identity{ID: "u2", Email: "pm@acme.com", Role: RoleUser}, project))
}

func TestRequireAdmin(t *testing.T) {
	assert.True(t, errors.Is(RequireAdmin(Identity{}), ErrUnauthenticated))
	assert.True(t, errors.Is(RequireAdmin(Identity{ID: "u1", Email: "a@b.com", Role: RoleUser}), ErrForbidden))
	assert.NoError(t, RequireAdmin(Identity{ID: "u2", Email: "a@b.com", Role: RoleAdmin}))
}
