package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// RFIService owns request-for-information CRUD.
type RFIService struct {
	Store    store.Store
	Projects *ProjectService
	Notifier *NotificationService
}

func NewRFIService(st store.Store, projects *ProjectService, notifier *NotificationService) *RFIService {
	return &RFIService{Store: st, Projects: projects, Notifier: notifier}
}

func (s *RFIService) ListRFIs(ctx context.Context, identity authz.Identity, projectID string) ([]db.RFI, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, projectID); err != nil {
		return nil, err
	}
	recs, err := s.Store.Filter(ctx, db.KindRFI, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list rfis: %w", err)
	}
	out := make([]db.RFI, 0, len(recs))
	for _, rec := range recs {
		out = append(out, db.RFIFromRecord(rec))
	}
	return out, nil
}

func (s *RFIService) CreateRFI(ctx context.Context, identity authz.Identity, input db.RFI) (db.RFI, error) {
	project, err := s.Projects.RequireProjectAccess(ctx, identity, input.ProjectID)
	if err != nil {
		return db.RFI{}, err
	}
	if err := input.Validate(); err != nil {
		return db.RFI{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}
	input.Status = "open"
	input.SubmittedBy = identity.Email

	rec, err := s.Store.Create(ctx, db.KindRFI, input.Fields())
	if err != nil {
		return db.RFI{}, fmt.Errorf("failed to create rfi: %w", err)
	}
	rfi := db.RFIFromRecord(rec)

	// The project manager fields open RFIs.
	if s.Notifier != nil && project.ProjectManager != "" && project.ProjectManager != identity.Email {
		s.Notifier.Notify(ctx, project.ProjectManager, rfi.ProjectID,
			"New RFI", fmt.Sprintf("%s opened RFI %q", identity.Email, rfi.Subject))
	}
	return rfi, nil
}

// UpdateRFIInput carries optional field updates; answering an RFI
// moves it to answered unless the caller sets status explicitly.
type UpdateRFIInput struct {
	Subject  *string `json:"subject,omitempty"`
	Question *string `json:"question,omitempty"`
	Answer   *string `json:"answer,omitempty"`
	Status   *string `json:"status,omitempty"`
	DueDate  *string `json:"due_date,omitempty"`
}

func (s *RFIService) UpdateRFI(ctx context.Context, identity authz.Identity, rfiID string, input UpdateRFIInput) (db.RFI, error) {
	rfi, err := s.getRFI(ctx, rfiID)
	if err != nil {
		return db.RFI{}, err
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, rfi.ProjectID); err != nil {
		return db.RFI{}, err
	}

	if input.Subject != nil {
		rfi.Subject = *input.Subject
	}
	if input.Question != nil {
		rfi.Question = *input.Question
	}
	if input.Answer != nil {
		rfi.Answer = *input.Answer
		if input.Status == nil && rfi.Answer != "" {
			rfi.Status = "answered"
		}
	}
	if input.Status != nil {
		rfi.Status = *input.Status
	}
	if input.DueDate != nil {
		rfi.DueDate = *input.DueDate
	}
	if err := rfi.Validate(); err != nil {
		return db.RFI{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}

	rec, err := s.Store.Update(ctx, db.KindRFI, rfiID, rfi.Fields())
	if errors.Is(err, store.ErrNotFound) {
		return db.RFI{}, fmt.Errorf("%w: rfi %s", authz.ErrNotFound, rfiID)
	}
	if err != nil {
		return db.RFI{}, fmt.Errorf("failed to update rfi: %w", err)
	}
	updated := db.RFIFromRecord(rec)

	if s.Notifier != nil && input.Answer != nil && updated.SubmittedBy != "" && updated.SubmittedBy != identity.Email {
		s.Notifier.Notify(ctx, updated.SubmittedBy, updated.ProjectID,
			"RFI answered", fmt.Sprintf("%s answered RFI %q", identity.Email, updated.Subject))
	}
	return updated, nil
}

func (s *RFIService) DeleteRFI(ctx context.Context, identity authz.Identity, rfiID string) error {
	rfi, err := s.getRFI(ctx, rfiID)
	if err != nil {
		return err
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, rfi.ProjectID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, db.KindRFI, rfiID); err != nil {
		return fmt.Errorf("failed to delete rfi: %w", err)
	}
	return nil
}

func (s *RFIService) getRFI(ctx context.Context, rfiID string) (db.RFI, error) {
	rec, err := store.Get(ctx, s.Store, db.KindRFI, rfiID)
	if errors.Is(err, store.ErrNotFound) {
		return db.RFI{}, fmt.Errorf("%w: rfi %s", authz.ErrNotFound, rfiID)
	}
	if err != nil {
		return db.RFI{}, fmt.Errorf("failed to fetch rfi: %w", err)
	}
	return db.RFIFromRecord(rec), nil
}
