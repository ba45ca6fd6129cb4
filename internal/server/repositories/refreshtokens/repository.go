// Package refreshtokens declares the repository contract for refresh-token
// records, the only mutable shared state of the auth core.
package refreshtokens

import (
	"context"

	"taskman/internal/server/models"
)

// Repository persists refresh-token records and implements the conditional
// invalidation primitive the rotation flow builds on.
type Repository interface {
	// Save inserts a new record and fills in its store-assigned ID and
	// CreatedAt. Token collisions surface as errors (unique index).
	Save(ctx context.Context, token *models.RefreshToken) error

	// GetByToken looks a record up by its opaque token string.
	// Returns common.ErrorNotFound when the token is absent.
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// IsValid reports whether the token exists, is not invalidated, and is
	// not past its expiry. Expiry is checked here, against the database
	// clock, and nowhere else.
	IsValid(ctx context.Context, token string) (bool, error)

	// AtomicInvalidate flips Invalidated from false to true in a single
	// conditional update, recording RevokedAt and ReplacedByTokenID, and
	// reports whether the flip happened. For a given token string at most
	// one caller ever observes true; every other concurrent caller sees
	// false and must treat the token as already consumed.
	AtomicInvalidate(ctx context.Context, token string, replacedByTokenID int64) (bool, error)

	// RevokeAllForUser invalidates every live token of the user and returns
	// how many records were flipped. Incident-response primitive used when
	// reuse of a consumed token is detected.
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
}
