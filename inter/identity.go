// Package inter defines the records that make up the grow_space ledger and
// their persisted layouts.
//
// Key concepts:
//   - Identity: a 32-byte participant (or account) key, printed as base58
//   - Digest: the 8-byte normalized form of an observed block value
//   - Ledger: the ordered list of BlockRecords for one period range
//   - VoterCredit: a participant's credit counter and double-credit watermark
//   - CreditAggregate: the flat list of credited participants
//
// All records are encoded with a fixed-width little-endian layout prefixed by
// an 8-byte type tag, so the size of an encoded record is exact and can be
// used for capacity accounting.

package inter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

const (
	// IdentitySize is the length of an encoded Identity.
	IdentitySize = 32
	// DigestSize is the length of an encoded Digest.
	DigestSize = 8
)

var (
	// ErrDecode is returned when externally supplied bytes cannot be
	// interpreted as the expected record or key.
	ErrDecode = errors.New("cannot decode")
)

// Identity is an opaque 32-byte participant key. The same type is used for
// account addresses, which are derived from seeds and share the key space.
type Identity [IdentitySize]byte

// IdentityFromBytes copies b into an Identity. The length must be exact.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentitySize {
		return id, fmt.Errorf("%w: identity of %d bytes", ErrDecode, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IdentityFromString parses the base58 form of an Identity.
func IdentityFromString(s string) (Identity, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: identity %q: %v", ErrDecode, s, err)
	}
	return IdentityFromBytes(raw)
}

// MustIdentityFromString is IdentityFromString for constants, it panics on error.
func MustIdentityFromString(s string) Identity {
	id, err := IdentityFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FakeIdentity returns a deterministic identity for tests and fake networks.
func FakeIdentity(n uint32) Identity {
	return Identity(hash.Of([]byte("fake identity"), bigendian.Uint32ToBytes(n)))
}

// Bytes returns a copy of the raw key.
func (id Identity) Bytes() []byte {
	return append([]byte(nil), id[:]...)
}

// IsZero reports whether the identity is all zeroes.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Less orders identities bytewise.
func (id Identity) Less(other Identity) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// String returns the base58 form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// MarshalText implements encoding.TextMarshaler, so identities travel as
// base58 strings in JSON and TOML.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(input []byte) error {
	res, err := IdentityFromString(string(input))
	if err != nil {
		return err
	}
	*id = res
	return nil
}

// Digest is the fixed-length normalized form of an observed block value.
type Digest [DigestSize]byte

// NormalizeDigest maps arbitrary value bytes to a Digest: longer inputs are
// truncated to their first 8 bytes, shorter ones are zero-padded on the right.
func NormalizeDigest(value []byte) Digest {
	var d Digest
	copy(d[:], value)
	return d
}

// String returns the digest as text, with zero padding trimmed. Non-printable
// digests fall back to hex.
func (d Digest) String() string {
	trimmed := bytes.TrimRight(d[:], "\x00")
	for _, c := range trimmed {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%x", d[:])
		}
	}
	return string(trimmed)
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the output of
// MarshalText and normalizes any other text.
func (d *Digest) UnmarshalText(input []byte) error {
	if len(input) == 2+2*DigestSize && bytes.HasPrefix(input, []byte("0x")) {
		if raw, err := hexutil.Decode(string(input)); err == nil {
			copy(d[:], raw)
			return nil
		}
	}
	*d = NormalizeDigest(input)
	return nil
}
