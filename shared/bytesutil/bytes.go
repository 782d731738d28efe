// Package bytesutil provides the fixed-width, big-endian byte conversions
// the hashing and provider layers use at their serialization edges (field
// elements are carried as poseidon.Field and serialized as [32]byte;
// content hashes are [32]byte), the way the teacher's shared/bytesutil
// backs shared/trieutil.
package bytesutil

import "encoding/hex"

// ToBytes32 truncates or zero-left-pads x to a fixed 32-byte array.
func ToBytes32(x []byte) [32]byte {
	var h [32]byte
	if len(x) > 32 {
		copy(h[:], x[len(x)-32:])
		return h
	}
	copy(h[32-len(x):], x)
	return h
}

// Trunc truncates a 32+ byte slice down to its first 6 bytes, used only
// for short human-readable log identifiers, never for hashing.
func Trunc(x []byte) []byte {
	if len(x) > 6 {
		return x[:6]
	}
	return x
}

// HexEncode renders a 32-byte value as the "0x"-prefixed, 64-char,
// lowercase hex string spec.md §6 requires for every published hash.
func HexEncode(b [32]byte) string {
	return "0x" + hex.EncodeToString(b[:])
}

// HexDecode32 parses a "0x"-prefixed 64-char hex string back into a
// 32-byte value.
func HexDecode32(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	return ToBytes32(b), nil
}

// CopyBytes2D deep-copies a [][]byte so callers mutating the result cannot
// alias the sort order preserved elsewhere in the build pipeline.
func CopyBytes2D(in [][]byte) [][]byte {
	out := make([][]byte, len(in))
	for i, b := range in {
		cp := make([]byte, len(b))
		copy(cp, b)
		out[i] = cp
	}
	return out
}
