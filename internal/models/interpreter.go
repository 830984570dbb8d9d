package models

import (
	"fmt"
	"time"
)

// InterpreterStatus is the lifecycle state of an interpreter profile
type InterpreterStatus string

const (
	InterpreterStatusPending   InterpreterStatus = "PENDING"
	InterpreterStatusActive    InterpreterStatus = "ACTIVE"
	InterpreterStatusInactive  InterpreterStatus = "INACTIVE"
	InterpreterStatusSuspended InterpreterStatus = "SUSPENDED"
)

// ParseInterpreterStatus validates a stored status value
func ParseInterpreterStatus(s string) (InterpreterStatus, error) {
	switch status := InterpreterStatus(s); status {
	case InterpreterStatusPending, InterpreterStatusActive, InterpreterStatusInactive, InterpreterStatusSuspended:
		return status, nil
	default:
		return "", fmt.Errorf("unknown interpreter status %q", s)
	}
}

// InterpreterProfile holds the interpreter-specific attributes of an INTERPRETER user
type InterpreterProfile struct {
	ID              string
	UserID          string
	FirstName       string
	LastName        string
	Status          InterpreterStatus
	IsVerified      bool
	Languages       []string
	Specializations []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InterpreterAccount is a user joined with its interpreter profile and,
// when one exists, the profile's credential record.
type InterpreterAccount struct {
	User       *User
	Profile    *InterpreterProfile
	Credential *Credential
}
