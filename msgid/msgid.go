// Package msgid generates the 12-character message identifiers used as the
// storage key and as replay cursors.
package msgid

import (
	"crypto/rand"
	"fmt"
)

// Length is the identifier length in characters.
const Length = 12

// alphabet is the fixed 62-symbol id alphabet. The id space (62^12) makes a
// global collision probability negligible; a collision surfaces as a
// constraint violation at write time and is not retried.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// New returns a fresh random identifier. Each output character is one
// cryptographically random byte reduced by modulo into the alphabet.
func New() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
