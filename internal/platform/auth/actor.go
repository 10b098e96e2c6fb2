package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of roles a user account can hold.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePatient      Role = "patient"
)

var allRoles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePatient}

// ParseRole converts a role string from storage or a token claim into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Roles returns all valid roles.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Actor is the authenticated caller for the duration of one request.
// DoctorID is set iff Role is doctor and the account has a linked doctor
// profile; PatientID is set iff Role is patient and the account has a
// linked patient profile. A missing link is a valid state and grants no
// access to profile-scoped resources.
type Actor struct {
	ID        uuid.UUID
	Role      Role
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

// Validate checks the role/link consistency invariant.
func (a Actor) Validate() error {
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	if a.DoctorID != nil && a.PatientID != nil {
		return fmt.Errorf("actor %s has both doctor and patient links", a.ID)
	}
	if a.DoctorID != nil && a.Role != RoleDoctor {
		return fmt.Errorf("actor %s has a doctor link but role %s", a.ID, a.Role)
	}
	if a.PatientID != nil && a.Role != RolePatient {
		return fmt.Errorf("actor %s has a patient link but role %s", a.ID, a.Role)
	}
	return nil
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the actor set by the auth middleware. The
// second return is false when the request was never authenticated; the
// caller must treat that as a 401, not a policy deny.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
