// Package auth implements the credential-issuance core: password hashing
// and verification, signed access-token issuance, opaque refresh-token
// generation, and access-token validation.
package auth

import (
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/argon2"

	"taskman/internal/common"
)

// Argon2id parameters. Fixed on purpose: every stored hash in the system
// uses the same cost, so verification cost is uniform across accounts.
const (
	saltSize    = 16 // 128 bit
	keySize     = 32 // 256 bit
	argonTime   = 4
	argonMemory = 64 * 1024 // KiB
	argonLanes  = 1
)

// DecoyHash is a well-formed stored hash that no password verifies against.
// Login runs Verify against it when the email is unknown, so the unknown-email
// and wrong-password paths cost the same amount of work. Deployments can
// override it via configuration.
var DecoyHash = base64.StdEncoding.EncodeToString(make([]byte, saltSize+keySize))

// Hasher derives and verifies password hashes with Argon2id.
// The zero value is ready to use.
type Hasher struct{}

// Secure hashes password with a fresh random salt and returns
// base64(salt||hash) for storage.
func (Hasher) Secure(password string) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonLanes, keySize)

	combined := make([]byte, 0, saltSize+keySize)
	combined = append(combined, salt...)
	combined = append(combined, hash...)
	return base64.StdEncoding.EncodeToString(combined), nil
}

// Verify re-derives the hash with the stored salt and compares in constant
// time. A malformed stored value is a verification failure, not an error:
// callers must not be able to distinguish "bad hash in the store" from
// "wrong password".
func (Hasher) Verify(password, storedHash string) bool {
	combined, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil || len(combined) != saltSize+keySize {
		return false
	}

	salt := combined[:saltSize]
	want := combined[saltSize:]

	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonLanes, keySize)

	return subtle.ConstantTimeCompare(got, want) == 1
}
