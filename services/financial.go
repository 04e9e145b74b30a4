package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// FinancialService owns financial lines and cost codes. Cost codes are
// unique per project; creating a duplicate is a CONFLICT, not a
// validation error, because the record shape itself is fine.
type FinancialService struct {
	Store    store.Store
	Projects *ProjectService
}

func NewFinancialService(st store.Store, projects *ProjectService) *FinancialService {
	return &FinancialService{Store: st, Projects: projects}
}

// ===========================
// FINANCIAL LINES
// ===========================

func (s *FinancialService) ListLines(ctx context.Context, identity authz.Identity, projectID string) ([]db.FinancialLine, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, projectID); err != nil {
		return nil, err
	}
	recs, err := s.Store.Filter(ctx, db.KindFinancialLine, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list financial lines: %w", err)
	}
	out := make([]db.FinancialLine, 0, len(recs))
	for _, rec := range recs {
		out = append(out, db.FinancialLineFromRecord(rec))
	}
	return out, nil
}

func (s *FinancialService) CreateLine(ctx context.Context, identity authz.Identity, input db.FinancialLine) (db.FinancialLine, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, input.ProjectID); err != nil {
		return db.FinancialLine{}, err
	}
	if err := input.Validate(); err != nil {
		return db.FinancialLine{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}
	if input.LineType == "" {
		input.LineType = "budget"
	}
	if input.CostCodeID != "" {
		if _, err := store.Get(ctx, s.Store, db.KindCostCode, input.CostCodeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return db.FinancialLine{}, fmt.Errorf("%w: cost code %s", authz.ErrNotFound, input.CostCodeID)
			}
			return db.FinancialLine{}, fmt.Errorf("failed to resolve cost code: %w", err)
		}
	}
	rec, err := s.Store.Create(ctx, db.KindFinancialLine, input.Fields())
	if err != nil {
		return db.FinancialLine{}, fmt.Errorf("failed to create financial line: %w", err)
	}
	return db.FinancialLineFromRecord(rec), nil
}

// UpdateLineInput carries optional field updates.
type UpdateLineInput struct {
	Description     *string  `json:"description,omitempty"`
	LineType        *string  `json:"line_type,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	PercentComplete *float64 `json:"percent_complete,omitempty"`
	CostCodeID      *string  `json:"cost_code_id,omitempty"`
}

func (s *FinancialService) UpdateLine(ctx context.Context, identity authz.Identity, lineID string, input UpdateLineInput) (db.FinancialLine, error) {
	rec, err := store.Get(ctx, s.Store, db.KindFinancialLine, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return db.FinancialLine{}, fmt.Errorf("%w: financial line %s", authz.ErrNotFound, lineID)
	}
	if err != nil {
		return db.FinancialLine{}, fmt.Errorf("failed to fetch financial line: %w", err)
	}
	line := db.FinancialLineFromRecord(rec)
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, line.ProjectID); err != nil {
		return db.FinancialLine{}, err
	}

	if input.Description != nil {
		line.Description = *input.Description
	}
	if input.LineType != nil {
		line.LineType = *input.LineType
	}
	if input.Amount != nil {
		line.Amount = *input.Amount
	}
	if input.PercentComplete != nil {
		line.PercentComplete = *input.PercentComplete
	}
	if input.CostCodeID != nil {
		line.CostCodeID = *input.CostCodeID
	}
	if err := line.Validate(); err != nil {
		return db.FinancialLine{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}

	updated, err := s.Store.Update(ctx, db.KindFinancialLine, lineID, line.Fields())
	if err != nil {
		return db.FinancialLine{}, fmt.Errorf("failed to update financial line: %w", err)
	}
	return db.FinancialLineFromRecord(updated), nil
}

func (s *FinancialService) DeleteLine(ctx context.Context, identity authz.Identity, lineID string) error {
	rec, err := store.Get(ctx, s.Store, db.KindFinancialLine, lineID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: financial line %s", authz.ErrNotFound, lineID)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch financial line: %w", err)
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, rec.Str("project_id")); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, db.KindFinancialLine, lineID); err != nil {
		return fmt.Errorf("failed to delete financial line: %w", err)
	}
	return nil
}

// ===========================
// COST CODES
// ===========================

func (s *FinancialService) ListCostCodes(ctx context.Context, identity authz.Identity, projectID string) ([]db.CostCode, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, projectID); err != nil {
		return nil, err
	}
	recs, err := s.Store.Filter(ctx, db.KindCostCode, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list cost codes: %w", err)
	}
	out := make([]db.CostCode, 0, len(recs))
	for _, rec := range recs {
		out = append(out, db.CostCodeFromRecord(rec))
	}
	return out, nil
}

func (s *FinancialService) CreateCostCode(ctx context.Context, identity authz.Identity, input db.CostCode) (db.CostCode, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, input.ProjectID); err != nil {
		return db.CostCode{}, err
	}
	if err := input.Validate(); err != nil {
		return db.CostCode{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}

	existing, err := s.Store.Filter(ctx, db.KindCostCode, map[string]any{
		"project_id": input.ProjectID,
		"code":       input.Code,
	})
	if err != nil {
		return db.CostCode{}, fmt.Errorf("failed to check cost code uniqueness: %w", err)
	}
	if len(existing) > 0 {
		return db.CostCode{}, fmt.Errorf("%w: cost code %q already exists on this project", authz.ErrConflict, input.Code)
	}

	rec, err := s.Store.Create(ctx, db.KindCostCode, input.Fields())
	if err != nil {
		return db.CostCode{}, fmt.Errorf("failed to create cost code: %w", err)
	}
	return db.CostCodeFromRecord(rec), nil
}

func (s *FinancialService) DeleteCostCode(ctx context.Context, identity authz.Identity, costCodeID string) error {
	rec, err := store.Get(ctx, s.Store, db.KindCostCode, costCodeID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: cost code %s", authz.ErrNotFound, costCodeID)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch cost code: %w", err)
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, rec.Str("project_id")); err != nil {
		return err
	}

	// Refuse to strand financial lines still pointing at the code.
	lines, err := s.Store.Filter(ctx, db.KindFinancialLine, map[string]any{"cost_code_id": costCodeID})
	if err != nil {
		return fmt.Errorf("failed to check cost code references: %w", err)
	}
	if len(lines) > 0 {
		return fmt.Errorf("%w: %d financial lines still reference this cost code", authz.ErrConflict, len(lines))
	}

	if err := s.Store.Delete(ctx, db.KindCostCode, costCodeID); err != nil {
		return fmt.Errorf("failed to delete cost code: %w", err)
	}
	return nil
}
