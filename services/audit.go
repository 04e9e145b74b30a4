package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// AuditService appends one AuditLog record per privileged mutation.
// Failures are absorbed: an audit-trail outage must never block the
// business operation it is attached to, so a gap in the trail is
// accepted in exchange for availability.
type AuditService struct {
	Store store.Store
}

func NewAuditService(st store.Store) *AuditService {
	return &AuditService{Store: st}
}

// Record appends an audit entry. It never returns an error; store
// failures go to the operational log only.
func (s *AuditService) Record(ctx context.Context, action string, identity authz.Identity, details map[string]any, ip string) {
	detailsJSON := ""
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			log.Printf("Audit details for %s not serializable: %v", action, err)
		} else {
			detailsJSON = string(data)
		}
	}

	_, err := s.Store.Create(ctx, db.KindAuditLog, map[string]any{
		"action":       action,
		"user_email":   identity.Email,
		"details_json": detailsJSON,
		"ip_address":   ip,
	})
	if err != nil {
		log.Printf("Audit record for %s (%s) failed: %v", action, identity.Email, err)
	}
}

// List returns the trail newest-first. Admin only.
func (s *AuditService) List(ctx context.Context, identity authz.Identity) ([]db.AuditLogRecord, error) {
	if err := authz.RequireAdmin(identity); err != nil {
		return nil, err
	}
	recs, err := s.Store.List(ctx, db.KindAuditLog, "-created_date")
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	out := make([]db.AuditLogRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, db.AuditLogFromRecord(rec))
	}
	return out, nil
}
