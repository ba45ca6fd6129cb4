// Package models holds the server-side domain entities persisted by the
// repository layer.
package models

import "time"

// Roles assignable to a user. The role travels inside the access token and
// is never derived from request data.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account entity. PasswordHash stores base64(salt||argon2id-hash)
// produced by auth.Hasher; the auth core only ever reads it.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	UserName     string
	PasswordHash string
	IsActive     bool
	Role         string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	LastLoginAt  *time.Time
}
