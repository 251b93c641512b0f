package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleOrganizer Role = "Organizer"
	RoleUser      Role = "User"
)

// ValidRole reports whether the value is a known role.
func ValidRole(value Role) bool {
	switch value {
	case RoleAdmin, RoleOrganizer, RoleUser:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	Activity     bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public projection of a user, joined onto listed events.
type Profile struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Activity bool   `json:"activity"`
	Role     Role   `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{
		Email:    u.Email,
		Phone:    u.Phone,
		Activity: u.Activity,
		Role:     u.Role,
	}
}

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// GetProfiles returns public profiles for the given user ids,
	// keyed by id. Unknown ids are simply absent from the result.
	GetProfiles(ctx context.Context, ids []string) (map[string]Profile, error)
}
