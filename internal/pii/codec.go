// Package pii fingerprints and seals personal data before it is stored.
//
// Fingerprints are deterministic one-way digests used for equality matching (admin allow-list,
// de-duplication). Sealing is reversible envelope encryption; a failure to seal or unseal is never
// soft-failed, callers propagate it and the request ends as an internal error.
package pii

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sealer encrypts and decrypts PII fields into transport-safe (base64) strings.
type Sealer interface {
	Seal(ctx context.Context, plaintext string) (string, error)
	Unseal(ctx context.Context, token string) (string, error)
}

// Normalize lower-cases and trims a value before fingerprinting.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Fingerprint returns the hex SHA-256 digest of the normalized value.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])
}

// AdminAllowList is the set of email fingerprints that provision with the admin role.
type AdminAllowList struct {
	hashes map[string]struct{}
}

// ParseAdminAllowList parses a comma-separated list of fingerprints, ignoring blanks.
func ParseAdminAllowList(csv string) AdminAllowList {
	l := AdminAllowList{hashes: make(map[string]struct{})}
	for _, h := range strings.Split(csv, ",") {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			l.hashes[h] = struct{}{}
		}
	}
	return l
}

// Contains reports whether fingerprint is on the list.
func (l AdminAllowList) Contains(fingerprint string) bool {
	_, ok := l.hashes[strings.ToLower(fingerprint)]
	return ok
}

// Len returns the number of fingerprints on the list.
func (l AdminAllowList) Len() int { return len(l.hashes) }
