// Package auth resolves the acting user from a request and exposes explicit
// role checks. Capability-gated actions (pharmacist verification, pharmacist
// approval) take an Actor value rather than reading ambient session state.
package auth

import "context"

// Role names recognised by the pharmacy core.
const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
	RolePhysician  = "physician"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID    string
	Name  string
	Roles []string
}

// HasRole reports whether the actor holds the role. Admin implies every role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// IsPharmacist reports whether the actor holds the pharmacist capability.
func (a Actor) IsPharmacist() bool {
	return a.HasRole(RolePharmacist)
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor attaches the actor to the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext retrieves the actor set by the auth middleware. The zero
// Actor (no roles) is returned for unauthenticated contexts.
func ActorFromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey).(Actor)
	return a
}
