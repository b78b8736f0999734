package models

import "time"

type Role string

const (
	RoleDonor Role = "donor"
	RoleNGO   Role = "ngo"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleNGO, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id" bson:"id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         Role      `json:"role" bson:"role"`
	OrgName      string    `json:"org_name" bson:"org_name"`
	ServiceArea  string    `json:"service_area" bson:"service_area"`
	Phone        string    `json:"phone" bson:"phone"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// DisplayName is what other parties see on listings and pickups.
func (u User) DisplayName() string {
	if u.OrgName != "" {
		return u.OrgName
	}
	return u.Email
}

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID    string
	Role  Role
	Email string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
