// Package said derives self-addressing identifiers.
//
// An identifier is the BLAKE3-256 digest of the canonical form of a value,
// encoded as 44 characters of base64url text whose first character is the
// derivation code of the algorithm. A value that carries its own identifier
// is digested with a placeholder in that field, and the result is written back.
package said

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/sk31337/oca/bindings/go/normalisation"
)

const (
	// Code is the derivation code of BLAKE3-256.
	Code = "E"
	// Length is the number of characters of an identifier.
	Length = 44
)

// Placeholder fills the identifier field while a value is digested.
var Placeholder = strings.Repeat("#", Length)

var ErrInvalidIdentifier = errors.New("invalid self-addressing identifier")

// Addressable is a value that carries its own identifier.
type Addressable interface {
	GetDigest() string
	SetDigest(string)
}

// Sum returns the identifier of the given canonical bytes.
func Sum(data []byte) string {
	digest := blake3.Sum256(data)

	// one lead byte aligns the 32 digest bytes to 44 characters,
	// its encoded character is then replaced by the code.
	padded := make([]byte, 1+len(digest))
	copy(padded[1:], digest[:])

	return Code + base64.RawURLEncoding.EncodeToString(padded)[len(Code):]
}

// Compute normalises v with the placeholder in its identifier field,
// stores the resulting identifier in v and returns it.
func Compute(v Addressable, algo normalisation.Algorithm) (string, error) {
	v.SetDigest(Placeholder)
	data, err := normalisation.Normalise(v, algo)
	if err != nil {
		v.SetDigest("")
		return "", fmt.Errorf("could not normalise value for digest: %w", err)
	}
	id := Sum(data)
	v.SetDigest(id)
	return id, nil
}

// Verify recomputes the identifier of v and reports whether it matches the stored one.
// The stored identifier is left in place.
func Verify(v Addressable, algo normalisation.Algorithm) (bool, string, error) {
	stored := v.GetDigest()
	defer v.SetDigest(stored)

	computed, err := Compute(v, algo)
	if err != nil {
		return false, "", err
	}
	return computed == stored, computed, nil
}

// Validate checks that s has the shape of an identifier.
// It does not verify that s belongs to any content.
func Validate(s string) error {
	if len(s) != Length {
		return fmt.Errorf("%w: %q has length %d, expected %d", ErrInvalidIdentifier, s, len(s), Length)
	}
	if !strings.HasPrefix(s, Code) {
		return fmt.Errorf("%w: %q does not start with derivation code %s", ErrInvalidIdentifier, s, Code)
	}
	raw, err := base64.RawURLEncoding.DecodeString("A" + s[len(Code):])
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidIdentifier, s, err)
	}
	if raw[0] != 0 {
		return fmt.Errorf("%w: %q is not aligned to the derivation code", ErrInvalidIdentifier, s)
	}
	return nil
}

// IsValid reports whether s has the shape of an identifier.
func IsValid(s string) bool {
	return Validate(s) == nil
}
