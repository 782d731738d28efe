package global

import (
	"context"
	"sort"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// RebuildRegion implements spec.md §4.9's minimum rebuild scope: a
// region-layer (or single-cell) change recomputes only that region's
// cell tree and the thin administrative levels above it, reusing every
// other region, country and continent's already-built commitments
// untouched (scenario S5, §8: "only CA region root is recomputed from
// leaves; all other region roots are reused").
//
// newCells is the region's complete, post-change cell set (a single
// changed cell still requires its whole region's leaf set, since
// merkletree.Build has no leaf-replacement primitive — only the
// region's own cell tree is rebuilt, not its siblings'). An empty
// newCells removes the region entirely.
//
// prev must be the Root a previous global.Build or RebuildRegion call
// produced for the same dataset; country must already appear in it.
func RebuildRegion(ctx context.Context, prev *Root, country, region string, newCells []cell.Cell, batchSize int) (*Root, error) {
	const op = "global.RebuildRegion"
	if prev == nil {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "prev root is nil")
	}

	continentTag, ok := ContinentOf(country)
	if !ok {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "country "+country+" has no registered continental grouping")
	}
	continent, ok := prev.Continents[continentTag]
	if !ok {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "continent "+continentTag+" not present in prior root")
	}
	countryResult, ok := continent.Countries[country]
	if !ok {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "country "+country+" not present in prior root")
	}

	regions := make(map[string]RegionResult, len(countryResult.Regions)+1)
	for code, rr := range countryResult.Regions {
		regions[code] = rr
	}
	if len(newCells) == 0 {
		delete(regions, region)
	} else {
		cellLeaves := make([]merkletree.LeafRecord, len(newCells))
		for i, c := range newCells {
			cellLeaves[i] = merkletree.LeafRecord{
				Key:  merkletree.SortKey{LayerType: "cell", ID: c.ID},
				Leaf: c.LeafHash(),
			}
		}
		cellTree, err := merkletree.Build(ctx, cellLeaves, batchSize)
		if err != nil {
			return nil, err
		}
		commitment := DomainSeparate("REGION:", region, cellTree.Root())
		regions[region] = RegionResult{RegionCode: region, CellTree: cellTree, Commitment: commitment}
	}

	regionLeaves := make([]merkletree.LeafRecord, 0, len(regions))
	for code, rr := range regions {
		regionLeaves = append(regionLeaves, merkletree.LeafRecord{
			Key:  merkletree.SortKey{LayerType: "region", ID: code},
			Leaf: rr.Commitment,
		})
	}
	if len(regionLeaves) == 0 {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "country "+country+" would have no regions left after rebuild")
	}
	sort.Slice(regionLeaves, func(i, j int) bool { return regionLeaves[i].Key.Less(regionLeaves[j].Key) })

	regionTree, err := merkletree.Build(ctx, regionLeaves, batchSize)
	if err != nil {
		return nil, err
	}
	countryCommitment := DomainSeparate("COUNTRY:", country, regionTree.Root())
	newCountryResult := CountryResult{
		CountryCode: country,
		Regions:     regions,
		RegionTree:  regionTree,
		Commitment:  countryCommitment,
	}

	countries := make(map[string]CountryResult, len(continent.Countries))
	for code, cr := range continent.Countries {
		countries[code] = cr
	}
	countries[country] = newCountryResult

	countryLeaves := make([]merkletree.LeafRecord, 0, len(countries))
	for code, cr := range countries {
		countryLeaves = append(countryLeaves, merkletree.LeafRecord{
			Key:  merkletree.SortKey{LayerType: "country", ID: code},
			Leaf: cr.Commitment,
		})
	}
	sort.Slice(countryLeaves, func(i, j int) bool { return countryLeaves[i].Key.Less(countryLeaves[j].Key) })

	countryTree, err := merkletree.Build(ctx, countryLeaves, batchSize)
	if err != nil {
		return nil, err
	}
	continentCommitment := DomainSeparate("CONTINENT:", continentTag, countryTree.Root())
	newContinentResult := ContinentResult{
		ContinentTag: continentTag,
		Countries:    countries,
		CountryTree:  countryTree,
		Commitment:   continentCommitment,
	}

	continents := make(map[string]ContinentResult, len(prev.Continents))
	for tag, cr := range prev.Continents {
		continents[tag] = cr
	}
	continents[continentTag] = newContinentResult

	continentLeaves := make([]merkletree.LeafRecord, 0, len(continents))
	for tag, cr := range continents {
		continentLeaves = append(continentLeaves, merkletree.LeafRecord{
			Key:  merkletree.SortKey{LayerType: "continent", ID: tag},
			Leaf: cr.Commitment,
		})
	}
	sort.Slice(continentLeaves, func(i, j int) bool { return continentLeaves[i].Key.Less(continentLeaves[j].Key) })

	globalTree, err := merkletree.Build(ctx, continentLeaves, batchSize)
	if err != nil {
		return nil, err
	}

	return &Root{
		Continents: continents,
		GlobalTree: globalTree,
		GlobalRoot: globalTree.Root(),
	}, nil
}
