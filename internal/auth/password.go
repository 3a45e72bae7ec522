// Package auth provides the credential primitives: salted password hashing
// and signed session tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing these only affects newly hashed passwords:
// the digest encodes the iteration count and salt it was produced with.
const (
	pbkdf2Iterations = 210000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32
	pbkdf2Prefix     = "pbkdf2_sha256"
)

// HashPassword derives a salted PBKDF2-SHA256 digest of the plaintext. Two
// calls with the same input produce different digests (fresh salt), but both
// verify.
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plaintext), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		pbkdf2Prefix,
		pbkdf2Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether plaintext re-derives to the stored digest
// under the digest's own salt and iteration count. Malformed digests verify
// false; they never produce an error.
func VerifyPassword(plaintext, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Prefix {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(plaintext), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// StrongPassword reports whether the password meets the registration policy:
// at least 8 characters with an upper-case letter, a lower-case letter, and
// a digit.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lowerCase, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lowerCase = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lowerCase && digit
}
