// Package actor identifies the user performing an action and the authority
// they carry. Handlers resolve an Actor once from the request and pass it
// down; services branch on capabilities, never on raw role strings.
package actor

import (
	"context"
	"fmt"
)

// Role is the closed set of access roles.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleEmployee   Role = "EMPLOYEE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleEmployee:
		return true
	}
	return false
}

// CanEditAttendanceDirectly reports whether the role may mutate attendance
// logs without going through the correction workflow.
func (r Role) CanEditAttendanceDirectly() bool {
	return r == RoleAdmin
}

// CanReviewCorrections reports whether the role may approve or reject
// correction requests.
func (r Role) CanReviewCorrections() bool {
	return r == RoleAdmin
}

// CanFinalizePayroll reports whether the role may finalize or reset payroll runs.
func (r Role) CanFinalizePayroll() bool {
	return r == RoleAdmin
}

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the unique identifier of the actor (user ID)
	ID string `json:"id"`

	// Email is the actor's email address
	Email string `json:"email"`

	// Role is the actor's access role
	Role Role `json:"role"`
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return "system"
	}
	return fmt.Sprintf("%s (%s)", a.Email, a.Role)
}

// HasAnyRole reports whether the actor holds one of the given roles.
func (a *Actor) HasAnyRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (e.g., kiosk operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// MustFromContext retrieves the Actor from the context.
// Panics if no actor is present. Use only behind auth middleware.
func MustFromContext(ctx context.Context) *Actor {
	a := FromContext(ctx)
	if a == nil {
		panic("actor not found in context")
	}
	return a
}
