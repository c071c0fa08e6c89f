package domain

import "errors"

// Role is the closed set of principals the portal knows about.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrLoginInProgress    = errors.New("login already in progress")
	ErrSessionUnresolved  = errors.New("session not resolved yet")
	ErrMalformedRecord    = errors.New("malformed identity record")
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Identity describes a logged-in principal.
type Identity struct {
	ID     string `json:"id" validate:"required"`
	Email  string `json:"email" validate:"required"`
	Name   string `json:"name"`
	Role   Role   `json:"role" validate:"required,oneof=patient doctor admin"`
	Avatar string `json:"avatar,omitempty"`
}

// Clone returns a copy that callers may mutate freely.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
