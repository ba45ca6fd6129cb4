package auth

import (
	"encoding/base64"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskman/internal/common"
)

// refreshTokenBytes is the entropy of an opaque refresh token. 64 random
// bytes base64-encode to an 88-character string.
const refreshTokenBytes = 64

// Claims is the access-token claim set: registered claims plus the two
// custom identity claims the API needs to rebuild a principal.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserID parses the subject claim into the numeric user id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenIssuer mints HS256-signed access tokens and opaque refresh tokens.
// The signing secret is loaded once at startup and never mutated.
type TokenIssuer struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

func NewTokenIssuer(secret []byte, issuer, audience string, accessTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, audience: audience, accessTTL: accessTTL}
}

// IssueAccessToken signs a token carrying sub/email/role/jti/iat/exp/iss/aud.
// The jti is a fresh UUID so every token is individually auditable.
func (i *TokenIssuer) IssueAccessToken(userID int64, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
		},
		Email: email,
		Role:  role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// IssueRefreshToken returns a fresh opaque token: 64 CSPRNG bytes,
// base64-encoded. It carries no claims; it is only a lookup key into the
// refresh-token store.
func (i *TokenIssuer) IssueRefreshToken() (string, error) {
	b := common.GenerateRandByteArray(refreshTokenBytes)
	return base64.StdEncoding.EncodeToString(b), nil
}
