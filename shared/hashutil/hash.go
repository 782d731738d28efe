// Package hashutil provides the plain SHA-256 digest the provider
// adapters use for upstream content hashes. poseidon.HashString (spec.md
// §4.1's hash_string) computes its own SHA-256 via crypto/sha256.
// hash_string must NEVER be used to build Merkle internal nodes; that is
// exclusively hash_pair's job (poseidon.HashPair).
package hashutil

import "crypto/sha256"

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}
