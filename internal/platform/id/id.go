// Package id generates identifiers and ledger addresses.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a lowercase base32 encoding of a random UUIDv4, 26
// characters, URL-safe without padding.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// NewAddress returns a random 20-byte account address as a 0x-prefixed
// lowercase hex string.
func NewAddress() (string, error) {
	var b [20]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate address: %w", err)
	}
	return "0x" + hex.EncodeToString(b[:]), nil
}
