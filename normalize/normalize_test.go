package normalize_test

import (
	"testing"

	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/normalize"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/stretchr/testify/require"
)

func unitSquareFeature(id string, lon, lat float64) normalize.Feature {
	return normalize.Feature{
		GeometryKind: normalize.KindPolygon,
		Polygons: []geo.Polygon{{Exterior: geo.Ring{
			{Lon: lon, Lat: lat},
			{Lon: lon + 1, Lat: lat},
			{Lon: lon + 1, Lat: lat + 1},
			{Lon: lon, Lat: lat + 1},
			{Lon: lon, Lat: lat},
		}}},
		Properties: map[string]string{"GEOID": id, "NAME": "District " + id},
	}
}

func baseSpec() normalize.LayerSpec {
	return normalize.LayerSpec{
		LayerType:      boundarytype.Congressional,
		IDAttributes:   []string{"GEOID", "ID"},
		NameAttributes: []string{"NAME"},
		CountryCode:    "US",
		RegionAttribute: "",
		RegionPrefixLen: 2,
		Vintage:        2024,
		AuthorityLevel: 1,
	}
}

func TestNormalize_AcceptsPolygonFeature(t *testing.T) {
	fc := normalize.FeatureCollection{Features: []normalize.Feature{unitSquareFeature("0601", 0, 0)}}
	result, err := normalize.Normalize(fc, baseSpec(), 0.01)
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 1)
	require.Equal(t, "0601", result.Boundaries[0].ID)
	require.Equal(t, "06", result.Boundaries[0].RegionCode)
}

func TestNormalize_DropsNonPolygonGeometry(t *testing.T) {
	fc := normalize.FeatureCollection{Features: []normalize.Feature{
		{GeometryKind: normalize.KindPoint, Properties: map[string]string{"GEOID": "x"}},
	}}
	result, err := normalize.Normalize(fc, baseSpec(), 1.0)
	require.NoError(t, err)
	require.Empty(t, result.Boundaries)
	require.Len(t, result.Warnings, 1)
}

func TestNormalize_DropsMissingId(t *testing.T) {
	f := unitSquareFeature("0601", 0, 0)
	f.Properties = map[string]string{"NAME": "no id here"}
	fc := normalize.FeatureCollection{Features: []normalize.Feature{f}}
	result, err := normalize.Normalize(fc, baseSpec(), 1.0)
	require.NoError(t, err)
	require.Empty(t, result.Boundaries)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, "missing id", result.Warnings[0].Reason)
}

func TestNormalize_UnknownRegionHaltsByDefault(t *testing.T) {
	spec := baseSpec()
	spec.RegionPrefixLen = 0
	fc := normalize.FeatureCollection{Features: []normalize.Feature{unitSquareFeature("0601", 0, 0)}}
	_, err := normalize.Normalize(fc, spec, 1.0)
	require.Error(t, err)
	require.True(t, atlaserr.Is(err, atlaserr.KindInvalidInput))
}

func TestNormalize_UnknownRegionAllowedWhenConfigured(t *testing.T) {
	spec := baseSpec()
	spec.RegionPrefixLen = 0
	spec.AllowUnknownRegion = true
	fc := normalize.FeatureCollection{Features: []normalize.Feature{unitSquareFeature("0601", 0, 0)}}
	result, err := normalize.Normalize(fc, spec, 1.0)
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 1)
	require.Equal(t, "", result.Boundaries[0].RegionCode)
}

func TestNormalize_DropRateCeilingEscalatesToValidationFailed(t *testing.T) {
	fc := normalize.FeatureCollection{Features: []normalize.Feature{
		{GeometryKind: normalize.KindPoint},
		{GeometryKind: normalize.KindPoint},
		unitSquareFeature("0601", 0, 0),
	}}
	_, err := normalize.Normalize(fc, baseSpec(), 0.10)
	require.Error(t, err)
	require.True(t, atlaserr.Is(err, atlaserr.KindValidationFailed))
}
