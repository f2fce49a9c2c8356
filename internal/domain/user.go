package domain

import "time"

// UserRole enumerates account roles.
type UserRole string

const (
	RoleUser   UserRole = "user"
	RoleAgent  UserRole = "agent"
	RoleAdmin  UserRole = "admin"
	RoleSystem UserRole = "system"
)

// ActorKind classifies who performed an action. It is the actor taxonomy
// used on replies and audit events, distinct from UserRole: agents and
// admins both act as ActorAgent.
type ActorKind string

const (
	ActorSystem ActorKind = "system"
	ActorAgent  ActorKind = "agent"
	ActorUser   ActorKind = "user"
)

// User is the domain model for requesters, agents, admins and the
// provisioned system actor.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActorKindFor maps a role to the actor taxonomy.
func ActorKindFor(role UserRole) ActorKind {
	switch role {
	case RoleAgent, RoleAdmin:
		return ActorAgent
	case RoleSystem:
		return ActorSystem
	default:
		return ActorUser
	}
}

// CanBeAssigned reports whether the user is eligible to receive tickets.
func (u *User) CanBeAssigned() bool {
	return u.Active && (u.Role == RoleAgent || u.Role == RoleAdmin)
}
