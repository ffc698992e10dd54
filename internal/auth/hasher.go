// Package auth issues and checks credentials: bcrypt password hashing, signed
// session tokens, and the sign-up / sign-in flow built on top of them.
package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for stored password hashes.
const BcryptCost = 10

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected at
// sign-up and never match at sign-in.
const MaxPasswordBytes = 72

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash.
	// Returns (false, nil) on mismatch and an error only when the comparison
	// itself could not be performed.
	Verify(password, hash string) (bool, error)
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code(CodeHashFailed).
			With("operation", "hash password").
			Wrap(errors.Join(ErrHashing, err))
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, oops.Code(CodeHashFailed).
		With("operation", "compare password").
		Wrap(errors.Join(ErrVerifying, err))
}
