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

func TestMarkReadOwnership(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := &NotificationService{Store: st}

	rec, err := st.Create(ctx, db.KindNotification, map[string]any{
		"user_email": "worker@acme.com", "title": "RFI answered",
	})
	require.NoError(t, err)

	owner := authz.Identity{ID: "u1", Email: "worker@acme.com", Role: authz.RoleUser}
	other := authz.Identity{ID: "u2", Email: "other@acme.com", Role: authz.RoleUser}
	admin := authz.Identity{ID: "u3", Email: "admin@acme.com", Role: authz.RoleAdmin}

	// Someone else's notification reads as missing, not forbidden.
	_, err = svc.MarkRead(ctx, other, rec.ID())
	assert.ErrorIs(t, err, authz.ErrNotFound)

	n, err := svc.MarkRead(ctx, owner, rec.ID())
	require.NoError(t, err)
	assert.True(t, n.Read)

	// Admins may mark any notification.
	_, err = svc.MarkRead(ctx, admin, rec.ID())
	assert.NoError(t, err)
}

func TestMarkReadMissingOverWrappedNotFound(t *testing.T) {
	ctx := context.Background()
	svc := &NotificationService{Store: &wrappedNotFoundStore{Store: store.NewMemory()}}

	owner := authz.Identity{ID: "u1", Email: "worker@acme.com", Role: authz.RoleUser}
	_, err := svc.MarkRead(ctx, owner, "no-such-notification")
	assert.ErrorIs(t, err, authz.ErrNotFound)
}
