package models

import "time"

// RefreshToken is one link of a rotation chain. Token is the opaque bearer
// string handed to the client; the record itself never leaves the server.
//
// Invalidated only ever transitions false -> true. A record is usable iff
// it is not invalidated and ExpiresAt is in the future. ReplacedByTokenID,
// when set, points at the successor record minted during rotation, so the
// chain can be audited after a suspected theft.
type RefreshToken struct {
	ID                int64
	UserID            int64
	Token             string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	Invalidated       bool
	RevokedAt         *time.Time
	ReplacedByTokenID *int64
}

// Valid reports whether the record is usable at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.Invalidated && t.ExpiresAt.After(now)
}
