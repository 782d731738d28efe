package engine

import (
	"github.com/shadowatlas/atlas/boundarytype"
	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/geo"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// assembleCells runs spec.md §4.5 once per country: each Source's
// PartitionLayer boundaries become CellGeometry (the representative
// polygon is the largest-area polygon of a MultiPolygon boundary, so a cell
// still has exactly one id and one pole of inaccessibility), and every
// other layer's boundaries become district_slots occupants via
// cell.Assemble.
func (e *Engine) assembleCells(ingest *ingestResult, sources []Source) (map[string]map[string][]cell.Cell, error) {
	const op = "engine.assembleCells"

	partitionLayerFor := make(map[boundarytype.LayerType]bool)
	for _, src := range sources {
		if src.PartitionLayer != "" {
			partitionLayerFor[src.PartitionLayer] = true
		}
	}

	boundariesByCountry := make(map[string]map[boundarytype.LayerType][]boundarytype.Boundary)
	partitionLayerByCountry := make(map[string]boundarytype.LayerType)
	for lt, bs := range ingest.ByLayer {
		for _, b := range bs {
			if boundariesByCountry[b.CountryCode] == nil {
				boundariesByCountry[b.CountryCode] = make(map[boundarytype.LayerType][]boundarytype.Boundary)
			}
			boundariesByCountry[b.CountryCode][lt] = append(boundariesByCountry[b.CountryCode][lt], b)
			if partitionLayerFor[lt] {
				partitionLayerByCountry[b.CountryCode] = lt
			}
		}
	}

	result := make(map[string]map[string][]cell.Cell, len(boundariesByCountry))

	for country, byLayer := range boundariesByCountry {
		table, ok := e.SlotTables[country]
		if !ok {
			return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "no registered slot table for country "+country)
		}
		partitionLayer, ok := partitionLayerByCountry[country]
		if !ok {
			return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "no partition layer configured for country "+country)
		}

		partitionBoundaries := byLayer[partitionLayer]
		geoms := make([]cell.CellGeometry, 0, len(partitionBoundaries))
		for _, b := range partitionBoundaries {
			geoms = append(geoms, cell.CellGeometry{
				ID:          b.ID,
				CountryCode: b.CountryCode,
				RegionCode:  b.RegionCode,
				Polygon:     representativePolygon(b),
			})
		}

		cells, err := cell.Assemble(geoms, byLayer, table)
		if err != nil {
			return nil, err
		}

		byRegion := make(map[string][]cell.Cell)
		for _, c := range cells {
			byRegion[c.RegionCode] = append(byRegion[c.RegionCode], c)
		}
		result[country] = byRegion
	}

	return result, nil
}

// representativePolygon picks the largest-area polygon (holes included)
// of a (Multi)Polygon boundary to stand in as its cell-partitioning
// geometry, so a
// MultiPolygon boundary still yields exactly one CellGeometry.
func representativePolygon(b boundarytype.Boundary) geo.Polygon {
	largest := b.Geometry[0]
	for _, p := range b.Geometry[1:] {
		if p.Area() > largest.Area() {
			largest = p
		}
	}
	return largest
}
