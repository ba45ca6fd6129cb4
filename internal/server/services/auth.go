// Package services contains server-side business logic. This file implements
// AuthService, which orchestrates the two credential flows: Login (verify
// password, mint a token pair) and Refresh (rotate the refresh token, with
// replay detection).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskman/internal/common"
	"taskman/internal/dbx"
	"taskman/internal/logging"
	"taskman/internal/server/auth"
	"taskman/internal/server/config"
	"taskman/internal/server/models"
	"taskman/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// passwordHasher is the verification seam; auth.Hasher in production.
type passwordHasher interface {
	Verify(password, storedHash string) bool
}

// AuthService implements the credential flows. Every client-visible failure
// collapses to common.ErrorUnauthorized, no matter which check tripped:
// the response must not reveal whether the email, the password, the access
// token, or the refresh token was the problem.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      passwordHasher
	issuer      *auth.TokenIssuer
	validator   *auth.TokenValidator
	logger      logging.Logger
	decoyHash   string
	refreshTTL  time.Duration
}

// NewAuthService constructs an AuthService from repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *AuthService {
	secret := []byte(cfg.SecretKey)
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      auth.Hasher{},
		issuer:      auth.NewTokenIssuer(secret, cfg.TokenIssuer, cfg.TokenAudience, cfg.AccessTokenValidityDuration),
		validator:   auth.NewTokenValidator(secret, cfg.TokenIssuer, cfg.TokenAudience),
		logger:      logger.With("component", "auth"),
		decoyHash:   cfg.DecoyPasswordHash,
		refreshTTL:  cfg.RefreshTokenValidityDuration,
	}
}

// Validator exposes the token validator for the HTTP bearer middleware.
func (s *AuthService) Validator() *auth.TokenValidator {
	return s.validator
}

// Login verifies the credentials and, on success, returns a fresh token pair
// and persists the refresh record.
//
// When the email is unknown we still run Verify against a decoy hash before
// failing, so unknown-email and wrong-password attempts take the same time
// and code path. Do not "optimize" the hash comparison away on the
// not-found branch.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	userRepo := s.repomanager.Users(s.db)

	storedHash, err := userRepo.GetPasswordHashByEmail(ctx, email)
	found := true
	switch {
	case errors.Is(err, common.ErrorNotFound):
		found = false
		storedHash = s.decoyHash
	case err != nil:
		return nil, fmt.Errorf("error loading password hash: %w", err)
	}

	matches := s.hasher.Verify(password, storedHash)
	if !found || !matches {
		return nil, common.ErrorUnauthorized
	}

	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.mintPair(ctx, user.ID, user.Email, user.Role, s.db)
	if err != nil {
		return nil, err
	}

	if err := userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		// Not worth failing a successful login over.
		s.logger.Warn(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges an expired access token plus a live refresh token for a
// fresh pair, rotating the refresh token.
//
// The successor record is inserted and the predecessor consumed inside one
// transaction. The conditional update in AtomicInvalidate is the only
// arbiter: if it reports the predecessor was already consumed, some other
// request (or an attacker replaying a stolen token) got there first. The
// transaction then rolls back, discarding the freshly minted pair, and every
// outstanding token of the user is revoked as defense in depth.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims := s.validator.ExtractClaimsIgnoringExpiry(accessToken)
	if claims == nil {
		return nil, common.ErrorUnauthorized
	}

	userID, err := claims.UserID()
	if err != nil || claims.Email == "" || claims.Role == "" {
		return nil, common.ErrorUnauthorized
	}

	exists, err := s.repomanager.Users(s.db).ExistsByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking user: %w", err)
	}
	if !exists {
		return nil, common.ErrorUnauthorized
	}

	tokenRepo := s.repomanager.RefreshTokens(s.db)

	record, err := tokenRepo.GetByToken(ctx, refreshToken)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorUnauthorized
	case err != nil:
		return nil, fmt.Errorf("error loading refresh token: %w", err)
	}
	if record.UserID != userID {
		return nil, common.ErrorUnauthorized
	}
	if record.Invalidated {
		// The token was already consumed once. Whoever presents it now holds
		// a stolen or leaked copy.
		return nil, s.handleReplay(ctx, userID)
	}

	// Expiry is judged by the store against the database clock.
	valid, err := tokenRepo.IsValid(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error checking refresh token: %w", err)
	}
	if !valid {
		return nil, common.ErrorUnauthorized
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)

		newPair, successor, err := s.buildPair(claims.Email, claims.Role, userID)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, successor); err != nil {
			return fmt.Errorf("error saving refresh token: %w", err)
		}

		flipped, err := repo.AtomicInvalidate(ctx, refreshToken, successor.ID)
		if err != nil {
			return fmt.Errorf("error invalidating refresh token: %w", err)
		}
		if !flipped {
			return common.ErrTokenReplayed
		}

		pair = newPair
		return nil
	})

	if errors.Is(err, common.ErrTokenReplayed) {
		return nil, s.handleReplay(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// handleReplay revokes every outstanding token of the user and returns the
// generic authorization failure.
func (s *AuthService) handleReplay(ctx context.Context, userID int64) error {
	s.logger.Warn(ctx, "refresh token reuse detected, revoking all user tokens", "user_id", userID)
	count, err := s.repomanager.RefreshTokens(s.db).RevokeAllForUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "failed to revoke user tokens after reuse", "user_id", userID, "error", err)
	} else {
		s.logger.Info(ctx, "revoked user tokens after reuse", "user_id", userID, "count", count)
	}
	return common.ErrorUnauthorized
}

// buildPair mints the tokens and the successor refresh record without
// touching storage.
func (s *AuthService) buildPair(email, role string, userID int64) (*TokenPair, *models.RefreshToken, error) {
	access, err := s.issuer.IssueAccessToken(userID, email, role)
	if err != nil {
		return nil, nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	record := &models.RefreshToken{
		UserID:    userID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, record, nil
}

// mintPair mints a pair and persists the refresh record on the given handle.
func (s *AuthService) mintPair(ctx context.Context, userID int64, email, role string, db dbx.DBTX) (*TokenPair, error) {
	pair, record, err := s.buildPair(email, role, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.RefreshTokens(db).Save(ctx, record); err != nil {
		return nil, fmt.Errorf("error saving refresh token: %w", err)
	}
	return pair, nil
}
