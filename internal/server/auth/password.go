// Package auth contains the credential primitives: password hashing and
// signed access tokens.
package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// MaxPasswordBytes is the longest password bcrypt can digest.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = fmt.Errorf("password longer than %d bytes", MaxPasswordBytes)

// Hasher turns plaintext passwords into salted digests and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	// DummyDigest returns a valid digest no password matches.
	DummyDigest() string
}

// BcryptHasher implements Hasher with bcrypt. Cost and salt live in the
// digest, so changing Cost does not invalidate stored hashes.
type BcryptHasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     string
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify compares in constant time. A malformed digest never matches.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// DummyDigest is computed once per hasher from random bytes, at the same
// cost as real digests, so comparing against it takes as long as a real
// mismatch.
func (h *BcryptHasher) DummyDigest() string {
	h.dummyOnce.Do(func() {
		secret := common.GenerateRandByteArray(32)
		defer common.WipeByteArray(secret)

		b, err := bcrypt.GenerateFromPassword(secret, h.Cost)
		if err != nil {
			// unreachable for a 32-byte input and a validated cost
			panic(err)
		}
		h.dummy = string(b)
	})
	return h.dummy
}
