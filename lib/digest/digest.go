// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// Domain selects the keyed-hash domain.
type Domain [32]byte

// The key bytes are the ASCII domain name, zero-padded to 32 bytes.
// Changing one changes every hash in that domain.
var (
	SnapshotDomain = Domain{
		's', 'h', 'o', 'p', 'b', 'o', 't', '.', 'c', 'a', 't', 'a', 'l', 'o', 'g', '.',
		's', 'n', 'a', 'p', 's', 'h', 'o', 't', 0, 0, 0, 0, 0, 0, 0, 0,
	}

	ImageDomain = Domain{
		's', 'h', 'o', 'p', 'b', 'o', 't', '.', 'r', 'e', 'n', 'd', 'e', 'r', '.',
		'j', 'p', 'e', 'g', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Sum hashes data in domain.
func Sum(domain Domain, data []byte) Hash {
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		// NewKeyed only fails for keys that are not 32 bytes.
		panic("digest: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the lowercase hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters, for logs.
func (h Hash) Short() string {
	return h.String()[:12]
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	hash, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = hash
	return nil
}

// Parse decodes a 64-character hex digest.
func Parse(text string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return hash, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("parsing digest: got %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}
