package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// UserService mirrors identity provider users into the entity store on
// first sight of a valid token.
type UserService struct {
	Store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{Store: st}
}

// EnsureUser upserts the store's mirror of an authenticated identity.
// Called from the auth middleware; failures are logged, never surfaced,
// so identity mirroring cannot break request handling.
func (s *UserService) EnsureUser(ctx context.Context, identity authz.Identity) {
	if identity.Email == "" {
		return
	}
	recs, err := s.Store.Filter(ctx, db.KindUser, map[string]any{"email": identity.Email})
	if err != nil {
		log.Printf("Failed to look up user %s: %v", identity.Email, err)
		return
	}
	if len(recs) > 0 {
		existing := db.UserFromRecord(recs[0])
		if existing.Role != identity.Role {
			if _, err := s.Store.Update(ctx, db.KindUser, existing.ID, map[string]any{"role": identity.Role}); err != nil {
				log.Printf("Failed to sync role for %s: %v", identity.Email, err)
			}
		}
		return
	}

	user := db.User{
		Email:   identity.Email,
		Name:    nameFromEmail(identity.Email),
		Role:    identity.Role,
		Company: companyFromEmail(identity.Email),
	}
	if _, err := s.Store.Create(ctx, db.KindUser, user.Fields()); err != nil {
		log.Printf("Failed to mirror user %s: %v", identity.Email, err)
		return
	}
	log.Printf("Mirrored new user %s (%s)", identity.Email, user.Company)
}

// ListUsers returns every mirrored user. Admin only.
func (s *UserService) ListUsers(ctx context.Context, identity authz.Identity) ([]db.User, error) {
	if err := authz.RequireAdmin(identity); err != nil {
		return nil, err
	}
	recs, err := s.Store.List(ctx, db.KindUser, "email")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]db.User, 0, len(recs))
	for _, r := range recs {
		out = append(out, db.UserFromRecord(r))
	}
	return out, nil
}

var titleCaser = cases.Title(language.English)

// nameFromEmail guesses a display name from the local part of an email,
// turning "jane.doe" into "Jane Doe".
func nameFromEmail(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return email
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return titleCaser.String(local)
}

// companyFromEmail derives a company label from the email domain,
// turning "acme-steel.com" into "Acme Steel".
func companyFromEmail(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return ""
	}
	base, _, _ := strings.Cut(domain, ".")
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return titleCaser.String(base)
}
