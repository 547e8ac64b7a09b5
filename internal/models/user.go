package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RolePublic    Role = "Public"
	RoleVolunteer Role = "Volunteer"
	RoleNGO       Role = "NGO"
	RoleAdmin     Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePublic, RoleVolunteer, RoleNGO, RoleAdmin:
		return true
	}
	return false
}

// CanBeAssigned is true for the roles that may own a Report or HelpRequest.
func (r Role) CanBeAssigned() bool {
	return r == RoleVolunteer || r == RoleNGO
}

// NeedsApproval is true for roles an Admin has to approve before first login.
func (r Role) NeedsApproval() bool {
	return r == RoleVolunteer || r == RoleNGO
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username    string             `bson:"username" json:"username"`
	Password    string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	Role        Role               `bson:"role" json:"role"`
	IsApproved  bool               `bson:"isApproved" json:"isApproved"`
	IsBlocked   bool               `bson:"isBlocked" json:"isBlocked"`
	BlockReason string             `bson:"blockReason,omitempty" json:"blockReason,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Summary is the populated form of a user reference.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username, Role: u.Role}
}

type UserSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Role     Role               `json:"role"`
}
