package proof_test

import (
	"context"
	"testing"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/proof"
	"github.com/stretchr/testify/require"
)

func fixtureCell(id, country, region string, seed uint64) cell.Cell {
	return cell.Cell{
		ID:            id,
		CountryCode:   country,
		RegionCode:    region,
		DistrictSlots: []poseidon.Field{poseidon.FieldFromUint64(seed), poseidon.EmptySlotPlaceholder},
		DistrictIDs:   []string{"D1", ""},
	}
}

func buildFixture(t *testing.T) (*global.Root, cell.Cell) {
	t.Helper()
	c := fixtureCell("0601", "US", "06", 1)
	cells := map[string]map[string][]cell.Cell{
		"US": {"06": {c, fixtureCell("0602", "US", "06", 2)}},
	}
	root, err := global.Build(context.Background(), cells, 64)
	require.NoError(t, err)
	return root, c
}

func TestVerify_RoundTrip(t *testing.T) {
	root, c := buildFixture(t)
	countryResult := root.Continents["NORTH_AMERICA"].Countries["US"]
	region := countryResult.Regions["06"]

	cp, err := proof.GenerateCellProof(region, countryResult.RegionTree, "US", merkletree.SortKey{LayerType: "cell", ID: c.ID})
	require.NoError(t, err)
	ctp, err := proof.GenerateCountryProof(root.Continents["NORTH_AMERICA"], root.GlobalTree, "US")
	require.NoError(t, err)

	require.True(t, proof.Verify(c.LeafHash(), cp, ctp, root.GlobalRoot))
	require.NoError(t, proof.VerifyOrError(c.LeafHash(), cp, ctp, root.GlobalRoot))
}

func TestVerify_TamperedSiblingFails(t *testing.T) {
	root, c := buildFixture(t)
	countryResult := root.Continents["NORTH_AMERICA"].Countries["US"]
	region := countryResult.Regions["06"]

	cp, err := proof.GenerateCellProof(region, countryResult.RegionTree, "US", merkletree.SortKey{LayerType: "cell", ID: c.ID})
	require.NoError(t, err)
	ctp, err := proof.GenerateCountryProof(root.Continents["NORTH_AMERICA"], root.GlobalTree, "US")
	require.NoError(t, err)

	cp.CellTreeSiblings.Siblings[0] = poseidon.FieldFromUint64(9999)
	require.False(t, proof.Verify(c.LeafHash(), cp, ctp, root.GlobalRoot))
}

func TestNullifier_DeterministicAndUnique(t *testing.T) {
	secret := poseidon.FieldFromUint64(42)
	ctxA := poseidon.HashString([]byte("district-A"))
	ctxB := poseidon.HashString([]byte("district-B"))

	n1 := proof.Nullifier(secret, ctxA, 1)
	n2 := proof.Nullifier(secret, ctxA, 1)
	require.True(t, n1.Equal(n2))

	n3 := proof.Nullifier(secret, ctxB, 1)
	require.False(t, n1.Equal(n3))

	n4 := proof.Nullifier(secret, ctxA, 2)
	require.False(t, n1.Equal(n4))
}
