// Package password hashes and checks user passwords with bcrypt, and
// bounds how many run at once through Pool.
//
// bcrypt reads at most 72 bytes. The hasher cuts there itself, backing off
// to a rune boundary, so Hash and Verify always see the same bytes and
// anything past the limit never changes the outcome.
package password

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the bcrypt input limit.
const MaxBytes = 72

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// Hasher turns passwords into salted hashes and back into a yes or no.
type Hasher interface {
	// Hash accepts any password, the empty one included.
	Hash(password string) (string, error)
	// Verify never matches a malformed hash.
	Verify(password, hash string) bool
}

// BcryptHasher is the Hasher used in production.
type BcryptHasher struct {
	cost int
}

// BcryptOption configures NewBcryptHasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the work factor. A cost bcrypt would refuse is ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// NewBcryptHasher starts from DefaultCost.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)) == nil
}

// truncate keeps the first MaxBytes of password, minus a rune the cut
// split in two. Only those MaxBytes decide the result.
func truncate(password string) []byte {
	if len(password) <= MaxBytes {
		return []byte(password)
	}
	b := []byte(password[:MaxBytes])
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				b = b[:i]
			}
			break
		}
	}
	return b
}
