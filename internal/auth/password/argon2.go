// Package password hashes and verifies user credentials with argon2id.
package password

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
)

const argonPrefix = "$argon2id$"

// Hasher produces argon2id encoded hashes.
type Hasher struct {
	params *argon2id.Params
}

// NewDefault returns a Hasher with argon2id.DefaultParams.
func NewDefault() *Hasher {
	return &Hasher{params: argon2id.DefaultParams}
}

// New returns a Hasher with custom parameters.
func New(p *argon2id.Params) *Hasher { return &Hasher{params: p} }

// Hash returns an encoded string of the form $argon2id$v=19$m=...,t=...,p=...$salt$key.
func (h *Hasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify compares plain against stored. Stored values that are not argon2id hashes come from
// legacy data and are compared in constant time; a match on those asks for an upgrade.
func (h *Hasher) Verify(plain, stored string) (match, upgrade bool, err error) {
	if !IsHash(stored) {
		ok := subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
		return ok, ok, nil
	}
	match, err = argon2id.ComparePasswordAndHash(plain, stored)
	return match, false, err
}

// IsHash reports whether stored is an argon2id encoded hash.
func IsHash(stored string) bool {
	return strings.HasPrefix(stored, argonPrefix)
}
