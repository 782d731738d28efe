package cell_test

import (
	"testing"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/stretchr/testify/require"
)

func square(originLon, originLat, size float64) geo.Polygon {
	return geo.Polygon{Exterior: geo.Ring{
		{Lon: originLon, Lat: originLat},
		{Lon: originLon + size, Lat: originLat},
		{Lon: originLon + size, Lat: originLat + size},
		{Lon: originLon, Lat: originLat + size},
		{Lon: originLon, Lat: originLat},
	}}
}

func twoSlotTable() cell.CountrySlotTable {
	return cell.CountrySlotTable{
		CountryCode: "US",
		Slots:       []boundarytype.LayerType{boundarytype.Congressional, boundarytype.County},
	}
}

func TestAssemble_SingleMatchPerLayer(t *testing.T) {
	geoms := []cell.CellGeometry{{ID: "cellA", CountryCode: "US", Polygon: square(0, 0, 1)}}
	boundaries := map[boundarytype.LayerType][]boundarytype.Boundary{
		boundarytype.Congressional: {{ID: "CD-1", CountryCode: "US", Geometry: []geo.Polygon{square(-1, -1, 4)}, AuthorityLevel: 1}},
		boundarytype.County:        {{ID: "CNTY-1", CountryCode: "US", Geometry: []geo.Polygon{square(-1, -1, 4)}, AuthorityLevel: 1}},
	}

	cells, err := cell.Assemble(geoms, boundaries, twoSlotTable())
	require.NoError(t, err)
	require.Len(t, cells, 1)
	require.Equal(t, "CD-1", cells[0].DistrictIDs[0])
	require.Equal(t, "CNTY-1", cells[0].DistrictIDs[1])
	require.False(t, cells[0].DistrictSlots[0].Equal(poseidon.EmptySlotPlaceholder))
}

func TestAssemble_VacantLayerIsCanonicalZero(t *testing.T) {
	geoms := []cell.CellGeometry{{ID: "cellA", CountryCode: "US", Polygon: square(0, 0, 1)}}
	boundaries := map[boundarytype.LayerType][]boundarytype.Boundary{
		boundarytype.Congressional: {{ID: "CD-1", CountryCode: "US", Geometry: []geo.Polygon{square(-1, -1, 4)}, AuthorityLevel: 1}},
	}

	cells, err := cell.Assemble(geoms, boundaries, twoSlotTable())
	require.NoError(t, err)
	require.True(t, cells[0].DistrictSlots[1].Equal(poseidon.EmptySlotPlaceholder))
	require.Equal(t, "", cells[0].DistrictIDs[1])
}

func TestAssemble_OverlappingBoundariesIsInvariantViolated(t *testing.T) {
	geoms := []cell.CellGeometry{{ID: "cellA", CountryCode: "US", Polygon: square(0, 0, 1)}}
	boundaries := map[boundarytype.LayerType][]boundarytype.Boundary{
		boundarytype.Congressional: {
			{ID: "A", CountryCode: "US", Geometry: []geo.Polygon{square(-1, -1, 4)}, AuthorityLevel: 1},
			{ID: "B", CountryCode: "US", Geometry: []geo.Polygon{square(-1, -1, 4)}, AuthorityLevel: 1},
		},
	}

	_, err := cell.Assemble(geoms, boundaries, twoSlotTable())
	require.Error(t, err)
	require.True(t, atlaserr.Is(err, atlaserr.KindInvariantViolated))
}
