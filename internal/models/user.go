package models

import (
	"time"
)

// User is the identity record shared by every role
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // empty when no permanent password has been set
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether a permanent password is on file
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
