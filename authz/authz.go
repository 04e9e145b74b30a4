// Package authz holds the access-policy evaluator and the error
// taxonomy shared across services and handlers. The evaluator is a
// pure decision function over an already-fetched project; callers
// fetch the Project record once and reuse it.
package authz

import (
	"errors"
	"fmt"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
)

// Common errors. Handlers map these to transport status codes; the
// core never deals in HTTP.
var (
	ErrUnauthenticated = errors.New("unauthenticated: no resolvable identity")
	ErrForbidden       = errors.New("forbidden: you don't have permission to perform this action")
	ErrNotFound        = errors.New("resource not found")
	ErrValidation      = errors.New("invalid input")
	ErrConflict        = errors.New("resource already exists")
)

// Roles assigned by the identity provider.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the resolved caller: id, email, and role for the
// duration of one request.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IsResolved reports whether any identity was resolved at all.
func (i Identity) IsResolved() bool {
	return i.ID != ""
}

// Decision is the outcome of an access evaluation.
type Decision struct {
	Allow   bool
	Project db.Project
	Reason  string
}

// Evaluate decides whether identity may act within project. Decision
// order: admin, then project manager / superintendent, then assigned
// users, then deny. It performs no I/O.
func Evaluate(identity Identity, project db.Project) Decision {
	if !identity.IsResolved() {
		return Decision{Project: project, Reason: "no resolvable identity"}
	}
	if identity.IsAdmin() {
		return Decision{Allow: true, Project: project, Reason: "admin"}
	}
	if identity.Email != "" {
		if identity.Email == project.ProjectManager {
			return Decision{Allow: true, Project: project, Reason: "project manager"}
		}
		if identity.Email == project.Superintendent {
			return Decision{Allow: true, Project: project, Reason: "superintendent"}
		}
		for _, email := range project.AssignedUsers {
			if email == identity.Email {
				return Decision{Allow: true, Project: project, Reason: "assigned user"}
			}
		}
	}
	return Decision{Project: project, Reason: "not assigned to this project"}
}

// Check converts an evaluation into the error taxonomy: nil on allow,
// ErrUnauthenticated or ErrForbidden otherwise.
func Check(identity Identity, project db.Project) error {
	if !identity.IsResolved() {
		return ErrUnauthenticated
	}
	d := Evaluate(identity, project)
	if !d.Allow {
		return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	return nil
}

// RequireAdmin is the guard for admin-only operations (cascade delete,
// integrity check, audit listing, API key minting).
func RequireAdmin(identity Identity) error {
	if !identity.IsResolved() {
		return ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
