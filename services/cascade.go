package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// CascadeResult summarizes a cascade deletion. Deleted maps entity
// kind to the number of records removed; Errors collects every
// per-record failure. The cascade is best-effort by design: the
// underlying store offers no multi-record transaction, so maximizing
// cleanup beats aborting halfway.
type CascadeResult struct {
	Deleted map[string]int `json:"deleted"`
	Errors  []CascadeError `json:"errors"`
}

// Failed reports whether any step of the cascade failed.
func (r CascadeResult) Failed() bool {
	return len(r.Errors) > 0
}

// TotalDeleted sums deletions across all kinds.
func (r CascadeResult) TotalDeleted() int {
	total := 0
	for _, n := range r.Deleted {
		total += n
	}
	return total
}

// CascadeError describes one failed deletion.
type CascadeError struct {
	EntityKind string `json:"entity_kind"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

// CascadeEngine removes a project together with every dependent record
// reachable by project_id. It applies no authorization itself; callers
// are already authorized as admin.
type CascadeEngine struct {
	Store store.Store
}

func NewCascadeEngine(st store.Store) *CascadeEngine {
	return &CascadeEngine{Store: st}
}

// CascadeDelete deletes the project's dependents in the canonical kind
// order (db.DependentKinds), then the project record itself. A failure
// on one record is recorded and the cascade moves on. Running it again
// on an id that no longer exists is a no-op success with zero counts,
// so deletion is safe to retry.
func (e *CascadeEngine) CascadeDelete(ctx context.Context, projectID string) CascadeResult {
	result := CascadeResult{Deleted: make(map[string]int)}

	for _, kind := range db.DependentKinds {
		recs, err := e.Store.Filter(ctx, kind, map[string]any{"project_id": projectID})
		if err != nil {
			result.Errors = append(result.Errors, CascadeError{
				EntityKind: kind,
				Message:    fmt.Sprintf("failed to enumerate records: %v", err),
			})
			continue
		}
		for _, rec := range recs {
			if err := e.Store.Delete(ctx, kind, rec.ID()); err != nil {
				result.Errors = append(result.Errors, CascadeError{
					EntityKind: kind,
					ID:         rec.ID(),
					Message:    err.Error(),
				})
				continue
			}
			result.Deleted[kind]++
		}
	}

	// The root goes last, and only after every dependent came out
	// cleanly, so a partially failed cascade never strands dependents
	// under a missing project. Retrying the cascade picks up where it
	// left off.
	if result.Failed() {
		log.Printf("Cascade delete of project %s keeping root after %d errors (%d records removed)",
			projectID, len(result.Errors), result.TotalDeleted())
		return result
	}

	rec, err := store.Get(ctx, e.Store, db.KindProject, projectID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Already gone: idempotent success.
	case err != nil:
		result.Errors = append(result.Errors, CascadeError{
			EntityKind: db.KindProject,
			ID:         projectID,
			Message:    fmt.Sprintf("failed to fetch project: %v", err),
		})
	default:
		if err := e.Store.Delete(ctx, db.KindProject, rec.ID()); err != nil {
			result.Errors = append(result.Errors, CascadeError{
				EntityKind: db.KindProject,
				ID:         projectID,
				Message:    err.Error(),
			})
		} else {
			result.Deleted[db.KindProject]++
		}
	}

	if result.Failed() {
		log.Printf("Cascade delete of project %s finished with %d errors (%d records removed)",
			projectID, len(result.Errors), result.TotalDeleted())
	}
	return result
}
