package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Identity is the caller resolved from a verified token and a live user record.
// It is built per request and passed explicitly to every service call.
type Identity struct {
	ID    primitive.ObjectID `json:"id"`
	Role  Role               `json:"role"`
	Email string             `json:"email"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Role: u.Role, Email: u.Email}
}

// UserChanges carries a partial profile update.
type UserChanges struct {
	Username *string
	Email    *string
}
