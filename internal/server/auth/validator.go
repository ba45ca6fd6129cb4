package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator checks access-token signatures and claims. The HS256
// allow-list is deliberate: a token whose header names any other algorithm
// (including "none") is rejected before its claims are even looked at, which
// closes the algorithm-confusion class of attacks.
type TokenValidator struct {
	secret   []byte
	issuer   string
	audience string
	strict   *jwt.Parser
	relaxed  *jwt.Parser
}

func NewTokenValidator(secret []byte, issuer, audience string) *TokenValidator {
	methods := jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})
	return &TokenValidator{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		strict: jwt.NewParser(
			methods,
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
		// Claim validation is skipped entirely and re-done by hand in
		// ExtractClaimsIgnoringExpiry, minus the expiry check.
		relaxed: jwt.NewParser(methods, jwt.WithoutClaimsValidation()),
	}
}

func (v *TokenValidator) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
	}
	return v.secret, nil
}

// Validate fully validates an access token (signature, issuer, audience,
// expiry) and returns its claims, or nil if the token is unusable.
// Used by the HTTP bearer middleware.
func (v *TokenValidator) Validate(accessToken string) *Claims {
	claims := &Claims{}
	token, err := v.strict.ParseWithClaims(accessToken, claims, v.keyFunc)
	if err != nil || !token.Valid {
		return nil
	}
	return claims
}

// ExtractClaimsIgnoringExpiry validates the signature, issuer, and audience
// exactly like Validate but does not enforce expiry: its whole purpose is to
// read identity out of a token that is expected to be expired, which is what
// triggers a refresh. Every failure, for any reason, collapses to nil, so
// attacker-controlled input never produces an error the caller could leak.
func (v *TokenValidator) ExtractClaimsIgnoringExpiry(accessToken string) *Claims {
	claims := &Claims{}
	token, err := v.relaxed.ParseWithClaims(accessToken, claims, v.keyFunc)
	if err != nil || !token.Valid {
		return nil
	}
	if claims.Issuer != v.issuer {
		return nil
	}
	if !hasAudience(claims.Audience, v.audience) {
		return nil
	}
	return claims
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
