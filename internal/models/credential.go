package models

import (
	"crypto/subtle"
	"time"
)

// Credential holds the first-login secrets of an interpreter profile.
// While FirstLogin is true a temp password or a login token is expected to be set;
// both are cleared once a permanent password is chosen.
type Credential struct {
	ID               string
	InterpreterID    string
	TempPasswordHash *string
	LoginToken       *string
	TokenExpiry      *time.Time
	FirstLogin       bool
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasTempPassword reports whether a temporary password hash is on file
func (c *Credential) HasTempPassword() bool {
	return c.TempPasswordHash != nil && *c.TempPasswordHash != ""
}

// HasLoginToken reports whether a one-time login token is on file
func (c *Credential) HasLoginToken() bool {
	return c.LoginToken != nil && *c.LoginToken != ""
}

// TokenMatches reports whether token equals the stored one-time token and,
// when an expiry is set, now is not past it.
func (c *Credential) TokenMatches(token string, now time.Time) bool {
	if token == "" || !c.HasLoginToken() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(*c.LoginToken)) != 1 {
		return false
	}
	if c.TokenExpiry != nil && now.After(*c.TokenExpiry) {
		return false
	}
	return true
}

// Status returns the presence-only view that is safe to expose over the API
func (c *Credential) Status() CredentialStatus {
	return CredentialStatus{
		HasTempPassword: c.HasTempPassword(),
		HasLoginToken:   c.HasLoginToken(),
		TokenExpiry:     c.TokenExpiry,
		FirstLogin:      c.FirstLogin,
		LastLoginAt:     c.LastLoginAt,
	}
}

// CredentialStatus exposes which first-login secrets exist, never their values
type CredentialStatus struct {
	HasTempPassword bool       `json:"hasTempPassword"`
	HasLoginToken   bool       `json:"hasLoginToken"`
	TokenExpiry     *time.Time `json:"tokenExpiry,omitempty"`
	FirstLogin      bool       `json:"firstLogin"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}
