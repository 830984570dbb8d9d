package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionPayload is the identity asserted by a session credential
type SessionPayload struct {
	UserID    string
	Email     string
	Role      Role
	ProfileID string // interpreter profile id; empty for other roles
}

// SessionClaims is the JWT body of a session credential
type SessionClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	ProfileID string `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

// Payload strips the registered claims
func (c *SessionClaims) Payload() SessionPayload {
	return SessionPayload{
		UserID:    c.UserID,
		Email:     c.Email,
		Role:      c.Role,
		ProfileID: c.ProfileID,
	}
}
