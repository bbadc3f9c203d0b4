// Package keys derives remote record names from account credentials.
//
// Every account maps to two records in the cloud store:
//   - a storage key derived from email+password, naming the snapshot record
//   - a discovery key derived from email alone, naming an existence marker
//
// Both are produced by a 32-bit rolling hash. The hash is deterministic and
// evenly distributed enough to partition the key namespace, and nothing more:
// it is NOT a password hash and the storage key is NOT a secure credential.
// Anyone who can compute the key can read and write the record. This mirrors
// the data format already deployed; a security-hardened deployment needs a
// real KDF plus server-side authorization instead.
package keys

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// hash31 computes the signed 32-bit rolling hash over the UTF-16 code units
// of s: h = h*31 + c, wrapping at int32 boundaries. Existing deployed records
// were keyed with this exact recurrence, so the UTF-16 iteration and the
// signed wraparound are load-bearing, not incidental.
func hash31(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

// hexAbs renders the absolute value of h as lowercase hexadecimal.
func hexAbs(h int32) string {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

// reverse returns s with its characters in reverse order.
func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// NormalizeEmail canonicalizes an email for key derivation: surrounding
// whitespace is stripped and the address is lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StorageKey derives the remote record name for an account's snapshot.
//
// The hash is concatenated with its character-reversed form to keep the
// storage namespace visually distinct from the discovery namespace. Same
// (email, password) always yields the same key.
func StorageKey(email, password string) string {
	seed := NormalizeEmail(email) + ":" + strings.TrimSpace(password)
	hex := hexAbs(hash31(seed))
	return "user_" + hex + "_" + reverse(hex)
}

// DiscoveryKey derives the remote record name for an account-exists marker.
// It depends only on the normalized email, so existence can be probed
// without knowing the password.
func DiscoveryKey(email string) string {
	return "exists_" + hexAbs(hash31(NormalizeEmail(email)))
}
