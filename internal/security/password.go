// Package security holds password hashing.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost      int
	decoyOnce sync.Once
	decoy     string
}

// NewPasswordHasher clamps cost into the range bcrypt accepts.
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted digest; two calls with the same plaintext yield different digests.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is a mismatch.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	return err == nil
}

// VerifyNothing spends the same bcrypt work as Verify against a digest no password
// matches. Callers use it when there is no stored digest to compare with.
func (h *PasswordHasher) VerifyNothing(plaintext string) bool {
	h.Verify(plaintext, h.decoyDigest())
	return false
}

func (h *PasswordHasher) decoyDigest() string {
	h.decoyOnce.Do(func() {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return
		}
		h.decoy, _ = h.Hash(base64.RawURLEncoding.EncodeToString(secret))
	})
	return h.decoy
}
