package global_test

import (
	"context"
	"testing"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/poseidon"
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

func TestBuild_ProducesStableGlobalRoot(t *testing.T) {
	cells := map[string]map[string][]cell.Cell{
		"US": {
			"06": {fixtureCell("0601", "US", "06", 1), fixtureCell("0602", "US", "06", 2)},
		},
	}
	root1, err := global.Build(context.Background(), cells, 64)
	require.NoError(t, err)
	root2, err := global.Build(context.Background(), cells, 1)
	require.NoError(t, err)
	require.True(t, root1.GlobalRoot.Equal(root2.GlobalRoot))
}

func TestBuild_DomainSeparationChangesRootAcrossCountries(t *testing.T) {
	cellsUS := map[string]map[string][]cell.Cell{
		"US": {"06": {fixtureCell("0601", "US", "06", 1)}},
	}
	cellsCA := map[string]map[string][]cell.Cell{
		"CA": {"ON": {fixtureCell("0601", "CA", "ON", 1)}},
	}
	rootUS, err := global.Build(context.Background(), cellsUS, 64)
	require.NoError(t, err)
	rootCA, err := global.Build(context.Background(), cellsCA, 64)
	require.NoError(t, err)
	require.False(t, rootUS.GlobalRoot.Equal(rootCA.GlobalRoot))
}

func TestBuild_UnregisteredContinentFails(t *testing.T) {
	cells := map[string]map[string][]cell.Cell{
		"ZZ": {"01": {fixtureCell("0101", "ZZ", "01", 1)}},
	}
	_, err := global.Build(context.Background(), cells, 64)
	require.Error(t, err)
}
