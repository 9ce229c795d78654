package user

import (
	"context"
	"time"
)

type Role string

const (
	RoleUnset Role = ""
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var roleTransitions = map[Role][]Role{
	RoleUnset: {RoleUser, RoleAdmin},
	RoleUser:  {RoleAdmin},
	RoleAdmin: {RoleUser},
}

func (r Role) Valid() bool {
	_, ok := roleTransitions[r]
	return ok
}

// CanBecome reports whether a user holding r may be given next. Assigning the
// current role again is allowed; nothing can be reset to unset.
func (r Role) CanBecome(next Role) bool {
	if !r.Valid() || next == RoleUnset || !next.Valid() {
		return false
	}
	if r == next {
		return true
	}
	for _, allowed := range roleTransitions[r] {
		if allowed == next {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"_id" bson:"-"`
	Email        string    `json:"email" bson:"email"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	PhotoURL     string    `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	Role         Role      `json:"role,omitempty" bson:"role,omitempty"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}
