// Package security provides password hashing for the user directory.
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates input beyond 72 bytes; reject instead so two
// long passwords with a shared prefix can never verify against each other.
const maxPasswordBytes = 72

var (
	// ErrPasswordEmpty is returned when an empty password is hashed.
	ErrPasswordEmpty = errors.New("security: password must not be empty")
	// ErrPasswordTooLong is returned for passwords beyond the bcrypt input limit.
	ErrPasswordTooLong = errors.New("security: password exceeds 72 bytes")
)

// Hasher hashes and verifies login passwords with bcrypt. Callers must not
// log or persist plaintext passwords.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to the
// valid 4–31 range. Cost 12 is a reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost reports the effective bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

// Hash produces a bcrypt hash of password suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	if len(password) == 0 {
		return "", ErrPasswordEmpty
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword(password, h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash in constant time.
// Returns nil on match and a non-nil error for a mismatch or a malformed
// stored hash.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
