package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nick-lortz/steelbuild-pro-sub016/authz"
	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

const apiKeyPrefix = "sbp_"

// APIKeyService mints and validates API keys for automation callers.
// The plaintext secret is returned exactly once at mint time; only its
// bcrypt hash is persisted.
type APIKeyService struct {
	Store store.Store
}

func NewAPIKeyService(st store.Store) *APIKeyService {
	return &APIKeyService{Store: st}
}

// CreateKey mints a new API key acting as the given user. Admin only.
func (s *APIKeyService) CreateKey(ctx context.Context, identity authz.Identity, name, userEmail, role string) (db.APIKey, string, error) {
	if err := authz.RequireAdmin(identity); err != nil {
		return db.APIKey{}, "", err
	}
	if name == "" || userEmail == "" {
		return db.APIKey{}, "", fmt.Errorf("%w: name and user_email are required", authz.ErrValidation)
	}
	if role != authz.RoleAdmin {
		role = authz.RoleUser
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return db.APIKey{}, "", fmt.Errorf("failed to generate key material: %w", err)
	}
	secret := apiKeyPrefix + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return db.APIKey{}, "", fmt.Errorf("failed to hash key: %w", err)
	}

	key := db.APIKey{
		Name:      name,
		UserEmail: userEmail,
		Role:      role,
		KeyHash:   string(hash),
	}
	rec, err := s.Store.Create(ctx, db.KindAPIKey, key.Fields())
	if err != nil {
		return db.APIKey{}, "", fmt.Errorf("failed to store api key: %w", err)
	}
	created := db.APIKeyFromRecord(rec)
	log.Printf("API key %q minted for %s by %s", name, userEmail, identity.Email)
	return created, secret, nil
}

// ValidateKey resolves a presented secret to the identity it acts as.
// The comparison walks every stored key; key counts are expected to be
// small and this keeps the secret unindexed.
func (s *APIKeyService) ValidateKey(ctx context.Context, secret string) (authz.Identity, error) {
	if secret == "" {
		return authz.Identity{}, authz.ErrUnauthenticated
	}
	recs, err := s.Store.List(ctx, db.KindAPIKey, "")
	if err != nil {
		return authz.Identity{}, fmt.Errorf("failed to load api keys: %w", err)
	}
	for _, r := range recs {
		key := db.APIKeyFromRecord(r)
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(secret)) == nil {
			s.touch(ctx, key.ID)
			return authz.Identity{ID: key.ID, Email: key.UserEmail, Role: key.Role}, nil
		}
	}
	return authz.Identity{}, fmt.Errorf("%w: unknown api key", authz.ErrUnauthenticated)
}

func (s *APIKeyService) touch(ctx context.Context, id string) {
	fields := map[string]any{"last_used": time.Now().UTC().Format(time.RFC3339)}
	if _, err := s.Store.Update(ctx, db.KindAPIKey, id, fields); err != nil {
		log.Printf("Failed to record api key use for %s: %v", id, err)
	}
}
