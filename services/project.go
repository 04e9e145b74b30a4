package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// ProjectService owns project CRUD and the fetch-then-evaluate access
// choke-point every project-scoped mutation goes through. Ids arrive
// from clients, so nothing keyed by a project_id may touch the store
// before RequireProjectAccess has passed.
type ProjectService struct {
	Store store.Store
}

func NewProjectService(st store.Store) *ProjectService {
	return &ProjectService{Store: st}
}

// GetProject fetches a project record without an access check. Callers
// that act on the result must use RequireProjectAccess instead.
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (db.Project, error) {
	rec, err := store.Get(ctx, s.Store, db.KindProject, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return db.Project{}, fmt.Errorf("%w: project %s", authz.ErrNotFound, projectID)
	}
	if err != nil {
		return db.Project{}, fmt.Errorf("failed to fetch project: %w", err)
	}
	return db.ProjectFromRecord(rec), nil
}

// RequireProjectAccess resolves the project once and evaluates the
// access policy against it. The returned project is meant to be reused
// by the caller so the record is not fetched twice per request.
func (s *ProjectService) RequireProjectAccess(ctx context.Context, identity authz.Identity, projectID string) (db.Project, error) {
	if !identity.IsResolved() {
		return db.Project{}, authz.ErrUnauthenticated
	}
	if projectID == "" {
		return db.Project{}, fmt.Errorf("%w: project_id is required", authz.ErrValidation)
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return db.Project{}, err
	}
	if err := authz.Check(identity, project); err != nil {
		return db.Project{}, err
	}
	return project, nil
}

// ListProjects returns every project the identity can access: all of
// them for admins, otherwise only projects the evaluator would allow.
func (s *ProjectService) ListProjects(ctx context.Context, identity authz.Identity) ([]db.Project, error) {
	if !identity.IsResolved() {
		return nil, authz.ErrUnauthenticated
	}
	recs, err := s.Store.List(ctx, db.KindProject, "-created_date")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	projects := make([]db.Project, 0, len(recs))
	for _, rec := range recs {
		p := db.ProjectFromRecord(rec)
		if identity.IsAdmin() || authz.Evaluate(identity, p).Allow {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

// CreateProject creates a project. Admin only.
func (s *ProjectService) CreateProject(ctx context.Context, identity authz.Identity, input db.Project) (db.Project, error) {
	if err := authz.RequireAdmin(identity); err != nil {
		return db.Project{}, err
	}
	if err := input.Validate(); err != nil {
		return db.Project{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}
	if input.Status == "" {
		input.Status = "planning"
	}
	rec, err := s.Store.Create(ctx, db.KindProject, input.Fields())
	if err != nil {
		return db.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return db.ProjectFromRecord(rec), nil
}

// UpdateProjectInput carries optional field updates.
type UpdateProjectInput struct {
	Name           *string   `json:"name,omitempty"`
	Status         *string   `json:"status,omitempty"`
	ProjectManager *string   `json:"project_manager,omitempty"`
	Superintendent *string   `json:"superintendent,omitempty"`
	AssignedUsers  *[]string `json:"assigned_users,omitempty"`
	StartDate      *string   `json:"start_date,omitempty"`
	EndDate        *string   `json:"end_date,omitempty"`
}

// touchesMembership reports whether the update would change who can
// reach the project, which is gated the same as members/add.
func (in UpdateProjectInput) touchesMembership() bool {
	return in.ProjectManager != nil || in.Superintendent != nil || in.AssignedUsers != nil
}

// UpdateProject applies a partial update after the access check.
// Updates that change the manager, superintendent, or assigned users
// require manager standing, same as the membership endpoints.
func (s *ProjectService) UpdateProject(ctx context.Context, identity authz.Identity, projectID string, input UpdateProjectInput) (db.Project, error) {
	var project db.Project
	var err error
	if input.touchesMembership() {
		project, err = s.requireManager(ctx, identity, projectID)
	} else {
		project, err = s.RequireProjectAccess(ctx, identity, projectID)
	}
	if err != nil {
		return db.Project{}, err
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.ProjectManager != nil {
		project.ProjectManager = *input.ProjectManager
	}
	if input.Superintendent != nil {
		project.Superintendent = *input.Superintendent
	}
	if input.AssignedUsers != nil {
		project.AssignedUsers = *input.AssignedUsers
	}
	if input.StartDate != nil {
		project.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = *input.EndDate
	}
	if err := project.Validate(); err != nil {
		return db.Project{}, fmt.Errorf("%w: %v", authz.ErrValidation, err)
	}

	rec, err := s.Store.Update(ctx, db.KindProject, projectID, project.Fields())
	if errors.Is(err, store.ErrNotFound) {
		return db.Project{}, fmt.Errorf("%w: project %s", authz.ErrNotFound, projectID)
	}
	if err != nil {
		return db.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return db.ProjectFromRecord(rec), nil
}

// AddAssignedUser grants a user membership on the project. Admin or
// anyone already passing the evaluator with manager standing: kept
// simple as admin/PM/superintendent, mirroring who runs a jobsite.
func (s *ProjectService) AddAssignedUser(ctx context.Context, identity authz.Identity, projectID, email string) (db.Project, error) {
	project, err := s.requireManager(ctx, identity, projectID)
	if err != nil {
		return db.Project{}, err
	}
	if email == "" {
		return db.Project{}, fmt.Errorf("%w: email is required", authz.ErrValidation)
	}
	for _, existing := range project.AssignedUsers {
		if existing == email {
			return project, nil // already assigned, idempotent
		}
	}
	project.AssignedUsers = append(project.AssignedUsers, email)
	rec, err := s.Store.Update(ctx, db.KindProject, projectID, project.Fields())
	if err != nil {
		return db.Project{}, fmt.Errorf("failed to add assigned user: %w", err)
	}
	return db.ProjectFromRecord(rec), nil
}

// RemoveAssignedUser revokes a user's membership on the project.
func (s *ProjectService) RemoveAssignedUser(ctx context.Context, identity authz.Identity, projectID, email string) (db.Project, error) {
	project, err := s.requireManager(ctx, identity, projectID)
	if err != nil {
		return db.Project{}, err
	}
	kept := project.AssignedUsers[:0]
	for _, existing := range project.AssignedUsers {
		if existing != email {
			kept = append(kept, existing)
		}
	}
	project.AssignedUsers = kept
	rec, err := s.Store.Update(ctx, db.KindProject, projectID, project.Fields())
	if err != nil {
		return db.Project{}, fmt.Errorf("failed to remove assigned user: %w", err)
	}
	return db.ProjectFromRecord(rec), nil
}

// requireManager allows admins, the project manager, and the
// superintendent; plain assigned users cannot manage membership.
func (s *ProjectService) requireManager(ctx context.Context, identity authz.Identity, projectID string) (db.Project, error) {
	project, err := s.RequireProjectAccess(ctx, identity, projectID)
	if err != nil {
		return db.Project{}, err
	}
	if identity.IsAdmin() || identity.Email == project.ProjectManager || identity.Email == project.Superintendent {
		return project, nil
	}
	return db.Project{}, fmt.Errorf("%w: membership changes require manager standing", authz.ErrForbidden)
}
