package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// DocumentService owns document metadata and document links. Binaries
// live with the external storage provider; only metadata is kept here.
type DocumentService struct {
	Store    store.Store
	Projects *ProjectService
}

func NewDocumentService(st store.Store, projects *ProjectService) *DocumentService {
	return &DocumentService{Store: st, Projects: projects}
}

func (s *DocumentService) ListDocuments(ctx context.Context, identity authz.Identity, projectID string) ([]db.Document, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, projectID); err != nil {
		return nil, err
	}
	recs, err := s.Store.Filter(ctx, db.KindDocument, map[string]any{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	out := make([]db.Document, 0, len(recs))
	for _, rec := range recs {
		out = append(out, db.DocumentFromRecord(rec))
	}
	return out, nil
}

func (s *DocumentService) CreateDocument(ctx context.Context, identity authz.Identity, input db.Document) (db.Document, error) {
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, input.ProjectID); err != nil {
		return db.Document{}, err
	}
	if input.Name == "" {
		return db.Document{}, fmt.Errorf("%w: document name is required", authz.ErrValidation)
	}
	input.UploadedBy = identity.Email
	rec, err := s.Store.Create(ctx, db.KindDocument, input.Fields())
	if err != nil {
		return db.Document{}, fmt.Errorf("failed to create document: %w", err)
	}
	return db.DocumentFromRecord(rec), nil
}

func (s *DocumentService) DeleteDocument(ctx context.Context, identity authz.Identity, documentID string) error {
	rec, err := store.Get(ctx, s.Store, db.KindDocument, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: document %s", authz.ErrNotFound, documentID)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch document: %w", err)
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, rec.Str("project_id")); err != nil {
		return err
	}

	// Links go first so no link ever points at a missing document.
	links, err := s.Store.Filter(ctx, db.KindDocumentLink, map[string]any{"document_id": documentID})
	if err != nil {
		return fmt.Errorf("failed to enumerate document links: %w", err)
	}
	for _, link := range links {
		if err := s.Store.Delete(ctx, db.KindDocumentLink, link.ID()); err != nil {
			return fmt.Errorf("failed to delete document link %s: %w", link.ID(), err)
		}
	}

	if err := s.Store.Delete(ctx, db.KindDocument, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// LinkDocument attaches a document to a task or RFI in the same project.
func (s *DocumentService) LinkDocument(ctx context.Context, identity authz.Identity, input db.DocumentLink) (db.DocumentLink, error) {
	if input.TargetKind != db.KindTask && input.TargetKind != db.KindRFI {
		return db.DocumentLink{}, fmt.Errorf("%w: target_kind must be Task or RFI", authz.ErrValidation)
	}
	docRec, err := store.Get(ctx, s.Store, db.KindDocument, input.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		return db.DocumentLink{}, fmt.Errorf("%w: document %s", authz.ErrNotFound, input.DocumentID)
	}
	if err != nil {
		return db.DocumentLink{}, fmt.Errorf("failed to fetch document: %w", err)
	}
	input.ProjectID = docRec.Str("project_id")
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, input.ProjectID); err != nil {
		return db.DocumentLink{}, err
	}

	targetRec, err := store.Get(ctx, s.Store, input.TargetKind, input.TargetID)
	if errors.Is(err, store.ErrNotFound) {
		return db.DocumentLink{}, fmt.Errorf("%w: %s %s", authz.ErrNotFound, input.TargetKind, input.TargetID)
	}
	if err != nil {
		return db.DocumentLink{}, fmt.Errorf("failed to fetch link target: %w", err)
	}
	if targetRec.Str("project_id") != input.ProjectID {
		return db.DocumentLink{}, fmt.Errorf("%w: document and target belong to different projects", authz.ErrValidation)
	}

	rec, err := s.Store.Create(ctx, db.KindDocumentLink, input.Fields())
	if err != nil {
		return db.DocumentLink{}, fmt.Errorf("failed to create document link: %w", err)
	}
	return db.DocumentLinkFromRecord(rec), nil
}

func (s *DocumentService) UnlinkDocument(ctx context.Context, identity authz.Identity, linkID string) error {
	rec, err := store.Get(ctx, s.Store, db.KindDocumentLink, linkID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: document link %s", authz.ErrNotFound, linkID)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch document link: %w", err)
	}
	if _, err := s.Projects.RequireProjectAccess(ctx, identity, rec.Str("project_id")); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, db.KindDocumentLink, linkID); err != nil {
		return fmt.Errorf("failed to delete document link: %w", err)
	}
	return nil
}
