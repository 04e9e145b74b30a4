package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

func TestIntegrityCheckCleanStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	project := seedProject(t, st, nil)
	task, err := st.Create(ctx, db.KindTask, map[string]any{"project_id": project.ID, "title": "Erect steel", "percent_complete": 40.0})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindScheduleAuditLog, map[string]any{"project_id": project.ID, "task_id": task.ID()})
	require.NoError(t, err)

	report, err := NewIntegrityService(st).RunIntegrityCheck(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.TotalIssues)
	assert.Empty(t, report.OrphanedRecords)
}

func TestIntegrityCheckFindsOrphans(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	project := seedProject(t, st, nil)

	// Project reference to nothing.
	_, err := st.Create(ctx, db.KindTask, map[string]any{"project_id": "ghost", "title": "Orphan"})
	require.NoError(t, err)
	// Intra-project references to nothing.
	_, err = st.Create(ctx, db.KindScheduleAuditLog, map[string]any{"project_id": project.ID, "task_id": "missing-task"})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindFinancialLine, map[string]any{"project_id": project.ID, "cost_code_id": "missing-cc", "amount": 1.0})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindDocumentLink, map[string]any{"project_id": project.ID, "document_id": "missing-doc", "target_kind": db.KindTask})
	require.NoError(t, err)

	report, err := NewIntegrityService(st).RunIntegrityCheck(ctx)
	require.NoError(t, err)

	require.Len(t, report.OrphanedRecords, 4)
	byRef := make(map[string]OrphanIssue)
	for _, o := range report.OrphanedRecords {
		if o.RefKind != "" {
			byRef[o.RefKind] = o
		} else {
			assert.Equal(t, "ghost", o.ProjectID)
			assert.Equal(t, db.KindTask, o.EntityKind)
		}
	}
	assert.Equal(t, "missing-task", byRef[db.KindTask].RefID)
	assert.Equal(t, "missing-cc", byRef[db.KindCostCode].RefID)
	assert.Equal(t, "missing-doc", byRef[db.KindDocument].RefID)
	assert.Equal(t, 4, report.TotalIssues)
}

func TestIntegrityCheckDateViolations(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	project := seedProject(t, st, nil)

	// Start after end.
	_, err := st.Create(ctx, db.KindTask, map[string]any{
		"project_id": project.ID, "title": "Backwards",
		"start_date": "2030-06-01", "end_date": "2030-05-01",
	})
	require.NoError(t, err)
	// Dates before the project existed.
	_, err = st.Create(ctx, db.KindTask, map[string]any{
		"project_id": project.ID, "title": "Ancient",
		"start_date": "1999-01-01", "end_date": "1999-02-01",
	})
	require.NoError(t, err)
	// Dates absurdly far out.
	_, err = st.Create(ctx, db.KindTask, map[string]any{
		"project_id": project.ID, "title": "Distant",
		"start_date": "2190-01-01",
	})
	require.NoError(t, err)
	// Garbage date text.
	_, err = st.Create(ctx, db.KindTask, map[string]any{
		"project_id": project.ID, "title": "Garbage", "start_date": "not-a-date",
	})
	require.NoError(t, err)

	report, err := NewIntegrityService(st).RunIntegrityCheck(ctx)
	require.NoError(t, err)

	require.Len(t, report.DateViolations, 4)
	details := make(map[string]bool)
	for _, d := range report.DateViolations {
		details[d.Detail] = true
	}
	assert.True(t, details["start_date after end_date"])
	assert.True(t, details["date precedes project creation"])
	assert.True(t, details["date beyond future horizon"])
	assert.True(t, details["unparseable date field"])
}

func TestIntegrityCheckNumericViolations(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	project := seedProject(t, st, nil)

	_, err := st.Create(ctx, db.KindTask, map[string]any{
		"project_id": project.ID, "title": "Overdone", "percent_complete": 150.0,
	})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindFinancialLine, map[string]any{
		"project_id": project.ID, "line_type": "budget", "amount": -50.0,
	})
	require.NoError(t, err)
	// Change orders may go negative: a credit.
	_, err = st.Create(ctx, db.KindFinancialLine, map[string]any{
		"project_id": project.ID, "line_type": "change_order", "amount": -200.0,
	})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindFinancialLine, map[string]any{
		"project_id": project.ID, "line_type": "actual", "amount": 10.0, "percent_complete": -5.0,
	})
	require.NoError(t, err)
	_, err = st.Create(ctx, db.KindCostCode, map[string]any{
		"project_id": project.ID, "code": "05-100", "budget": -1.0,
	})
	require.NoError(t, err)

	report, err := NewIntegrityService(st).RunIntegrityCheck(ctx)
	require.NoError(t, err)

	require.Len(t, report.NumericViolations, 4)
	fields := make(map[string]int)
	for _, n := range report.NumericViolations {
		fields[n.Field]++
	}
	assert.Equal(t, 2, fields["percent_complete"])
	assert.Equal(t, 1, fields["amount"])
	assert.Equal(t, 1, fields["budget"])
}

// listFailStore fails List for one kind; any such failure should fail
// the whole check rather than produce a partial report.
type listFailStore struct {
	store.Store
	failKind string
}

func (f *listFailStore) List(ctx context.Context, kind string, sortKey string) ([]store.Record, error) {
	if kind == f.failKind {
		return nil, errors.New("backend unavailable")
	}
	return f.Store.List(ctx, kind, sortKey)
}

func TestIntegrityCheckFailsWhole(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	seedProject(t, mem, nil)

	_, err := NewIntegrityService(&listFailStore{Store: mem, failKind: db.KindRFI}).RunIntegrityCheck(ctx)
	assert.Error(t, err)
}
