// Package merkletree implements spec.md §4.6's multi-layer builder: the
// core bottom-up Merkle construction shared by every composition layer
// (cell leaves up through region, country, continent and global roots —
// spec.md §4.7 reuses the same HashPair/odd-node machinery with domain
// separation tags).
//
// The bottom-up construction here generalizes the teacher's sparse trie
// (shared/trieutil/sparse_merkle.go): same layered-branches structure and
// sibling-proof extraction, but Poseidon HashPair in place of sha256
// concat-hash, and the odd-node rule hash_pair(x, x) in place of a fixed
// zero-hash table — spec.md §9 locks this rule in explicitly because it
// changes what a proof's self-sibling case looks like.
package merkletree

import "github.com/shadowatlas/atlas/poseidon"

// SortKey orders leaf records before tree construction (spec.md §4.6:
// "an ordered composite (layer-type, id)").
type SortKey struct {
	LayerType string
	ID        string
}

// Less implements the canonical stable ordering: layer type first, then
// id, both compared lexicographically.
func (k SortKey) Less(o SortKey) bool {
	if k.LayerType != o.LayerType {
		return k.LayerType < o.LayerType
	}
	return k.ID < o.ID
}

// LeafRecord is one pre-hash-composed leaf plus the sort key that fixes
// its position in the tree.
type LeafRecord struct {
	Key  SortKey
	Leaf poseidon.Field
}

// ComputeLeaf implements spec.md §4.6's leaf hash formula:
//
//	leaf = hash_n(layer_type_digest, id_digest, geometry_digest,
//	              authority_level_field, provenance_digest?)
//
// geometryDigest is the caller-supplied geometry hash (cell.Assemble
// passes boundarytype.Boundary.GeometryDigest, a hash_string over the
// ring-normalized coordinate listing); provenanceDigest is included
// if and only if the boundary carries a provenance source.
func ComputeLeaf(layerType, id string, geometryDigest poseidon.Field, authorityLevel int, provenanceDigest *poseidon.Field) poseidon.Field {
	parts := []poseidon.Field{
		poseidon.HashString([]byte(layerType)),
		poseidon.HashString([]byte(id)),
		geometryDigest,
		poseidon.FieldFromUint64(uint64(authorityLevel)),
	}
	if provenanceDigest != nil {
		parts = append(parts, *provenanceDigest)
	}
	return poseidon.HashN(parts)
}
