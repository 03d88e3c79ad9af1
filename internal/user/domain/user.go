package domain

import (
	"errors"
	"time"
)

// User is a portal account. Accounts are created when an access application
// is approved, or bootstrapped by the seed tool.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return errors.New("role must be user or admin")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
