package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

func seedProject(t *testing.T, st store.Store, fields map[string]any) db.Project {
	t.Helper()
	if fields == nil {
		fields = map[string]any{}
	}
	if _, ok := fields["name"]; !ok {
		fields["name"] = "Test Project"
	}
	rec, err := st.Create(context.Background(), db.KindProject, fields)
	require.NoError(t, err)
	return db.ProjectFromRecord(rec)
}

func TestCascadeDeleteRemovesAllDependents(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	project := seedProject(t, st, nil)
	other := seedProject(t, st, map[string]any{"name": "Untouched"})

	taskRec, err := st.Create(ctx, db.KindTask, map[string]any{"project_id": project.ID, "title": "Erect steel"})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindScheduleAuditLog, map[string]any{"project_id": project.ID, "task_id": taskRec.ID()})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindRFI, map[string]any{"project_id": project.ID, "subject": "Bolt spec"})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindFinancialLine, map[string]any{"project_id": project.ID, "amount": 100.0})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindNotification, map[string]any{"project_id": project.ID, "user_email": "a@b.com"})
	require.NoError(t, err)

	// Records of other projects and the audit trail must survive.
	otherTask, err := st.Create(ctx, db.KindTask, map[string]any{"project_id": other.ID, "title": "Pour footings"})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindAuditLog, map[string]any{"action": "project.create", "user_email": "admin@b.com"})
	require.NoError(t, err)

	engine := NewCascadeEngine(st)
	result := engine.CascadeDelete(ctx, project.ID)

	assert.False(t, result.Failed())
	assert.Equal(t, 1, result.Deleted[db.KindTask])
	assert.Equal(t, 1, result.Deleted[db.KindScheduleAuditLog])
	assert.Equal(t, 1, result.Deleted[db.KindRFI])
	assert.Equal(t, 1, result.Deleted[db.KindFinancialLine])
	assert.Equal(t, 1, result.Deleted[db.KindNotification])
	assert.Equal(t, 1, result.Deleted[db.KindProject])
	assert.Equal(t, 6, result.TotalDeleted())

	_, err = store.Get(ctx, st, db.KindProject, project.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	remaining, err := st.Filter(ctx, db.KindTask, map[string]any{"project_id": project.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = store.Get(ctx, st, db.KindTask, otherTask.ID())
	assert.NoError(t, err)

	trail, err := st.List(ctx, db.KindAuditLog, "")
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestCascadeDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	project := seedProject(t, st, nil)

	engine := NewCascadeEngine(st)
	first := engine.CascadeDelete(ctx, project.ID)
	require.False(t, first.Failed())

	second := engine.CascadeDelete(ctx, project.ID)
	assert.False(t, second.Failed())
	assert.Equal(t, 0, second.TotalDeleted())
}

// enumFailStore fails Filter for one kind to prove a single bad kind
// does not abort the rest of the cascade.
type enumFailStore struct {
	store.Store
	failKind string
}

func (f *enumFailStore) Filter(ctx context.Context, kind string, query map[string]any) ([]store.Record, error) {
	if kind == f.failKind {
		return nil, errors.New("backend unavailable")
	}
	return f.Store.Filter(ctx, kind, query)
}

// wrappedNotFoundStore surfaces not-found from Filter already wrapped,
// the way a layered store might. Sentinel checks downstream must use
// errors.Is to keep working over it.
type wrappedNotFoundStore struct {
	store.Store
}

func (w *wrappedNotFoundStore) Filter(ctx context.Context, kind string, query map[string]any) ([]store.Record, error) {
	recs, err := w.Store.Filter(ctx, kind, query)
	if err != nil {
		return nil, err
	}
	if _, byID := query["id"]; byID && len(recs) == 0 {
		return nil, fmt.Errorf("layered store: %w", store.ErrNotFound)
	}
	return recs, nil
}

func TestCascadeDeleteIdempotentOverWrappedNotFound(t *testing.T) {
	ctx := context.Background()
	st := &wrappedNotFoundStore{Store: store.NewMemory()}

	result := NewCascadeEngine(st).CascadeDelete(ctx, "long-gone")
	assert.False(t, result.Failed())
	assert.Equal(t, 0, result.TotalDeleted())
}

func TestCascadeDeleteCollectsErrorsAndContinues(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	project := seedProject(t, mem, nil)
	_, err := mem.Create(ctx, db.KindTask, map[string]any{"project_id": project.ID, "title": "Erect steel"})
	require.NoError(t, err)
	_, err = mem.Create(ctx, db.KindRFI, map[string]any{"project_id": project.ID, "subject": "Bolt spec"})
	require.NoError(t, err)

	engine := NewCascadeEngine(&enumFailStore{Store: mem, failKind: db.KindTask})
	result := engine.CascadeDelete(ctx, project.ID)

	assert.True(t, result.Failed())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, db.KindTask, result.Errors[0].EntityKind)

	// The RFI was still removed, but the root project survives so the
	// cascade can be retried without stranding the failed kind.
	assert.Equal(t, 1, result.Deleted[db.KindRFI])
	assert.Zero(t, result.Deleted[db.KindProject])
	_, err = store.Get(ctx, mem, db.KindProject, project.ID)
	assert.NoError(t, err)
}
