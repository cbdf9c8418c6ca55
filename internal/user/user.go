package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrEmailTaken    = errors.New("a user with this email already exists")
	ErrUsernameTaken = errors.New("a user with this username already exists")
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is an account. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil
}
