package merkletree

import (
	"fmt"

	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// Direction is the direction bit spec.md §4.8 requires: which side the
// current node sits on relative to its sibling.
type Direction int

const (
	DirectionLeft  Direction = 0 // current node is the left child
	DirectionRight Direction = 1 // current node is the right child
)

// SiblingPath is the proof material for one leaf: sibling hashes and
// direction bits, ordered leaf-to-root (spec.md §4.8).
type SiblingPath struct {
	Siblings   []poseidon.Field
	Directions []Direction
}

// Siblings extracts the sibling path for key, for use by proof/ when
// assembling a cell_proof or country_proof (spec.md §4.8). At an odd
// level with no sibling, the self-node's own hash is returned as its
// sibling, matching the self-pairing Build used to construct that level
// (spec.md §4.9 step 2: "the prover supplies the node itself as its own
// sibling").
func (t *Tree) Siblings(key SortKey) (SiblingPath, error) {
	const op = "merkletree.Siblings"
	idx, ok := t.index[key]
	if !ok {
		return SiblingPath{}, atlaserr.New(atlaserr.KindInvalidInput, op,
			fmt.Sprintf("no leaf for key (%s, %s)", key.LayerType, key.ID))
	}

	path := SiblingPath{
		Siblings:   make([]poseidon.Field, 0, t.Depth()),
		Directions: make([]Direction, 0, t.Depth()),
	}

	pos := idx
	for level := 0; level < t.Depth(); level++ {
		nodes := t.levels[level]
		var sibling poseidon.Field
		var dir Direction
		if pos%2 == 0 {
			dir = DirectionLeft
			if pos+1 < len(nodes) {
				sibling = nodes[pos+1]
			} else {
				sibling = nodes[pos] // odd-node self-sibling
			}
		} else {
			dir = DirectionRight
			sibling = nodes[pos-1]
		}
		path.Siblings = append(path.Siblings, sibling)
		path.Directions = append(path.Directions, dir)
		pos /= 2
	}

	return path, nil
}

// VerifyPath recomputes a root from leaf and path, walking leaf-to-root
// exactly as spec.md §4.9 step 2 describes: direction 0 hashes
// (current, sibling), direction 1 hashes (sibling, current).
func VerifyPath(leaf poseidon.Field, path SiblingPath) poseidon.Field {
	h := leaf
	for i, sibling := range path.Siblings {
		if path.Directions[i] == DirectionLeft {
			h = poseidon.HashPair(h, sibling)
		} else {
			h = poseidon.HashPair(sibling, h)
		}
	}
	return h
}
