package domain

import "github.com/google/uuid"

// Role is the caller's role as asserted by the authentication layer.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBroker   Role = "broker"
	RoleCustomer Role = "customer"
)

// Actor is the resolved identity behind a lead operation.
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	BrokerID *uuid.UUID
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsBroker reports whether the actor acts through a broker profile.
func (a Actor) IsBroker() bool { return a.BrokerID != nil }

// IsBrokerID reports whether id is the actor's own broker profile.
func (a Actor) IsBrokerID(id uuid.UUID) bool {
	return a.BrokerID != nil && *a.BrokerID == id
}
