// Package models defines the service-side account types.
package models

import "time"

// User is an account. PasswordHash is an encoded argon2id hash
// (see cryptox.HashPassword).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
