package merkletree_test

import (
	"context"
	"testing"

	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/stretchr/testify/require"
)

func leafRecord(layerType, id string, seed uint64) merkletree.LeafRecord {
	return merkletree.LeafRecord{
		Key:  merkletree.SortKey{LayerType: layerType, ID: id},
		Leaf: poseidon.FieldFromUint64(seed),
	}
}

func TestBuild_OddNodeSelfPairs(t *testing.T) {
	records := []merkletree.LeafRecord{
		leafRecord("congressional", "0601", 1),
		leafRecord("congressional", "0602", 2),
		leafRecord("congressional", "0603", 3),
	}
	tree, err := merkletree.Build(context.Background(), records, 64)
	require.NoError(t, err)

	l0601 := poseidon.FieldFromUint64(1)
	l0602 := poseidon.FieldFromUint64(2)
	l0603 := poseidon.FieldFromUint64(3)
	expected := poseidon.HashPair(poseidon.HashPair(l0601, l0602), poseidon.HashPair(l0603, l0603))
	require.True(t, expected.Equal(tree.Root()))
}

func TestBuild_DeterministicRegardlessOfBatchSize(t *testing.T) {
	records := []merkletree.LeafRecord{
		leafRecord("county", "A", 10),
		leafRecord("county", "B", 20),
		leafRecord("county", "C", 30),
		leafRecord("county", "D", 40),
		leafRecord("county", "E", 50),
	}
	tree1, err := merkletree.Build(context.Background(), records, 1)
	require.NoError(t, err)
	tree2, err := merkletree.Build(context.Background(), records, 64)
	require.NoError(t, err)
	require.True(t, tree1.Root().Equal(tree2.Root()))
}

func TestSiblings_ProofRoundTrip(t *testing.T) {
	records := []merkletree.LeafRecord{
		leafRecord("congressional", "0601", 1),
		leafRecord("congressional", "0602", 2),
		leafRecord("congressional", "0603", 3),
	}
	tree, err := merkletree.Build(context.Background(), records, 64)
	require.NoError(t, err)

	path, err := tree.Siblings(merkletree.SortKey{LayerType: "congressional", ID: "0602"})
	require.NoError(t, err)
	require.Len(t, path.Siblings, 2)
	require.Equal(t, []merkletree.Direction{merkletree.DirectionRight, merkletree.DirectionLeft}, path.Directions)

	root := merkletree.VerifyPath(poseidon.FieldFromUint64(2), path)
	require.True(t, root.Equal(tree.Root()))
}

func TestSiblings_TamperedProofFailsVerification(t *testing.T) {
	records := []merkletree.LeafRecord{
		leafRecord("congressional", "0601", 1),
		leafRecord("congressional", "0602", 2),
		leafRecord("congressional", "0603", 3),
	}
	tree, err := merkletree.Build(context.Background(), records, 64)
	require.NoError(t, err)
	path, err := tree.Siblings(merkletree.SortKey{LayerType: "congressional", ID: "0602"})
	require.NoError(t, err)

	tampered := path
	tampered.Directions = []merkletree.Direction{merkletree.DirectionLeft, merkletree.DirectionLeft}
	root := merkletree.VerifyPath(poseidon.FieldFromUint64(2), tampered)
	require.False(t, root.Equal(tree.Root()))
}

func TestBuild_DuplicateSortKeyRejected(t *testing.T) {
	records := []merkletree.LeafRecord{
		leafRecord("congressional", "0601", 1),
		leafRecord("congressional", "0601", 2),
	}
	_, err := merkletree.Build(context.Background(), records, 64)
	require.Error(t, err)
}

func TestComputeLeaf_Deterministic(t *testing.T) {
	digest := poseidon.HashString([]byte("geometry-bytes"))
	a := merkletree.ComputeLeaf("congressional", "0601", digest, 1, nil)
	b := merkletree.ComputeLeaf("congressional", "0601", digest, 1, nil)
	require.True(t, a.Equal(b))

	provenance := poseidon.HashString([]byte("provenance-bytes"))
	c := merkletree.ComputeLeaf("congressional", "0601", digest, 1, &provenance)
	require.False(t, a.Equal(c))
}
