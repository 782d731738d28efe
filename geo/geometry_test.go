package geo_test

import (
	"testing"

	"github.com/shadowatlas/atlas/geo"
	"github.com/stretchr/testify/require"
)

func unitSquare(originLon, originLat float64) geo.Polygon {
	return geo.Polygon{Exterior: geo.Ring{
		{Lon: originLon, Lat: originLat},
		{Lon: originLon + 1, Lat: originLat},
		{Lon: originLon + 1, Lat: originLat + 1},
		{Lon: originLon, Lat: originLat + 1},
		{Lon: originLon, Lat: originLat},
	}}
}

func TestNormalize_ClosesAndOrients(t *testing.T) {
	open := geo.Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 1}}
	norm := geo.Normalize(geo.Polygon{Exterior: open})
	require.Equal(t, norm.Exterior[0], norm.Exterior[len(norm.Exterior)-1])
	require.True(t, geo.IsCCW(norm.Exterior))
}

func TestIoU_Symmetric(t *testing.T) {
	a := unitSquare(0, 0)
	b := unitSquare(0.5, 0)
	iouAB := geo.IoU(a, b)
	iouBA := geo.IoU(b, a)
	require.InDelta(t, iouAB, iouBA, 1e-9)
	require.Greater(t, iouAB, 0.0)
	require.Less(t, iouAB, 1.0)
}

func TestIoU_IdenticalIsOne(t *testing.T) {
	a := unitSquare(0, 0)
	b := unitSquare(0, 0)
	require.InDelta(t, 1.0, geo.IoU(a, b), 0.02)
}

func TestIoU_DisjointIsZero(t *testing.T) {
	a := unitSquare(0, 0)
	b := unitSquare(10, 10)
	require.Equal(t, 0.0, geo.IoU(a, b))
}

func TestPoleOfInaccessibility_InsidePolygon(t *testing.T) {
	sq := unitSquare(0, 0)
	p := geo.PoleOfInaccessibility(sq)
	require.True(t, sq.Contains(p))
}

func TestIsValid_RejectsSelfIntersecting(t *testing.T) {
	bowtie := geo.Polygon{Exterior: geo.Ring{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 1, Lat: 0}, {Lon: 0, Lat: 1}, {Lon: 0, Lat: 0},
	}}
	require.False(t, geo.IsValid(bowtie))
}

func TestInBounds(t *testing.T) {
	sq := unitSquare(0, 0)
	require.True(t, geo.InBounds(sq))
	bad := unitSquare(179.5, 0)
	require.False(t, geo.InBounds(bad))
}
