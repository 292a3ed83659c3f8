package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainLocation is the domain prefix for location digests.
// The version suffix leaves room for a future algorithm change.
const DomainLocation = "routesync/location/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// LocationDigest identifies a location by its path and state.
// Key and Action are excluded: two entries showing the same path with the
// same state are the same place.
func LocationDigest(loc Location) (string, error) {
	obj := Object{
		"path":  String(loc.Path()),
		"state": nullIfNil(loc.State),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("LocationDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLocation, canonical), nil
}

// MustLocationDigest is like LocationDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustLocationDigest(loc Location) string {
	d, err := LocationDigest(loc)
	if err != nil {
		panic(err)
	}
	return d
}

// SameLocation reports whether a and b denote the same place: equal path
// and deeply equal state. Two nil locations are the same; nil and non-nil
// are not.
func SameLocation(a, b *Location) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Path() == b.Path() && Equal(a.State, b.State)
}
