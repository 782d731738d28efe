package global

import (
	"context"
	"fmt"
	"sort"

	"github.com/shadowatlas/atlas/cell"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// DomainSeparate implements spec.md §4.7's domain separation: each
// non-leaf layer's children are first combined with a tag before
// entering the parent tree, so a proof against one subtree can never be
// replayed against a sibling subtree with the same contents.
//
//	country_commitment = hash_pair(hash_string("COUNTRY:" || iso2), country_merkle_root)
//
// Exported so proof/ can reconstruct the same commitment during
// verification without duplicating the formula.
func DomainSeparate(tag, code string, subtreeRoot poseidon.Field) poseidon.Field {
	return poseidon.HashPair(poseidon.HashString([]byte(tag+code)), subtreeRoot)
}

// RegionResult is one region's built cell-leaf tree plus its
// domain-separated commitment.
type RegionResult struct {
	RegionCode string
	CellTree   *merkletree.Tree
	Commitment poseidon.Field
}

// CountryResult is one country's built region tree plus its
// domain-separated commitment.
type CountryResult struct {
	CountryCode string
	Regions     map[string]RegionResult
	RegionTree  *merkletree.Tree
	Commitment  poseidon.Field
}

// ContinentResult is one continent's built country tree plus its
// domain-separated commitment.
type ContinentResult struct {
	ContinentTag string
	Countries    map[string]CountryResult
	CountryTree  *merkletree.Tree
	Commitment   poseidon.Field
}

// Root is the full hierarchical build result: spec.md §4.7's
// Cell-leaf -> Region -> Country -> Continent -> Global chain.
type Root struct {
	Continents map[string]ContinentResult
	GlobalTree *merkletree.Tree
	GlobalRoot poseidon.Field
}

// Build composes the global root from cells grouped by country and
// region (spec.md §4.7). batchSize is forwarded to merkletree.Build for
// every subtree constructed. Ordering at each non-leaf layer is
// lexicographic on the identifier, per spec.md §4.7.
func Build(ctx context.Context, cellsByCountryRegion map[string]map[string][]cell.Cell, batchSize int) (*Root, error) {
	const op = "global.Build"

	countryResults := make(map[string]CountryResult, len(cellsByCountryRegion))
	continentCountries := make(map[string][]string)

	for countryCode, regions := range cellsByCountryRegion {
		regionResults := make(map[string]RegionResult, len(regions))
		regionLeaves := make([]merkletree.LeafRecord, 0, len(regions))

		for regionCode, cells := range regions {
			if len(cells) == 0 {
				continue
			}
			cellLeaves := make([]merkletree.LeafRecord, len(cells))
			for i, c := range cells {
				cellLeaves[i] = merkletree.LeafRecord{
					Key:  merkletree.SortKey{LayerType: "cell", ID: c.ID},
					Leaf: c.LeafHash(),
				}
			}
			cellTree, err := merkletree.Build(ctx, cellLeaves, batchSize)
			if err != nil {
				return nil, err
			}
			commitment := DomainSeparate("REGION:", regionCode, cellTree.Root())
			regionResults[regionCode] = RegionResult{RegionCode: regionCode, CellTree: cellTree, Commitment: commitment}
			regionLeaves = append(regionLeaves, merkletree.LeafRecord{
				Key:  merkletree.SortKey{LayerType: "region", ID: regionCode},
				Leaf: commitment,
			})
		}

		if len(regionLeaves) == 0 {
			continue
		}
		sort.Slice(regionLeaves, func(i, j int) bool { return regionLeaves[i].Key.Less(regionLeaves[j].Key) })

		regionTree, err := merkletree.Build(ctx, regionLeaves, batchSize)
		if err != nil {
			return nil, err
		}
		countryCommitment := DomainSeparate("COUNTRY:", countryCode, regionTree.Root())
		countryResults[countryCode] = CountryResult{
			CountryCode: countryCode,
			Regions:     regionResults,
			RegionTree:  regionTree,
			Commitment:  countryCommitment,
		}

		continentTag, ok := ContinentOf(countryCode)
		if !ok {
			return nil, atlaserr.New(atlaserr.KindInvalidInput, op, fmt.Sprintf("country %q has no registered continental grouping", countryCode))
		}
		continentCountries[continentTag] = append(continentCountries[continentTag], countryCode)
	}

	continentResults := make(map[string]ContinentResult, len(continentCountries))
	continentLeaves := make([]merkletree.LeafRecord, 0, len(continentCountries))

	for tag, codes := range continentCountries {
		sort.Strings(codes)
		countryLeaves := make([]merkletree.LeafRecord, len(codes))
		countries := make(map[string]CountryResult, len(codes))
		for i, code := range codes {
			cr := countryResults[code]
			countries[code] = cr
			countryLeaves[i] = merkletree.LeafRecord{
				Key:  merkletree.SortKey{LayerType: "country", ID: code},
				Leaf: cr.Commitment,
			}
		}
		countryTree, err := merkletree.Build(ctx, countryLeaves, batchSize)
		if err != nil {
			return nil, err
		}
		commitment := DomainSeparate("CONTINENT:", tag, countryTree.Root())
		continentResults[tag] = ContinentResult{
			ContinentTag: tag,
			Countries:    countries,
			CountryTree:  countryTree,
			Commitment:   commitment,
		}
		continentLeaves = append(continentLeaves, merkletree.LeafRecord{
			Key:  merkletree.SortKey{LayerType: "continent", ID: tag},
			Leaf: commitment,
		})
	}

	if len(continentLeaves) == 0 {
		return nil, atlaserr.New(atlaserr.KindInvalidInput, op, "no cells provided")
	}
	sort.Slice(continentLeaves, func(i, j int) bool { return continentLeaves[i].Key.Less(continentLeaves[j].Key) })

	globalTree, err := merkletree.Build(ctx, continentLeaves, batchSize)
	if err != nil {
		return nil, err
	}

	return &Root{
		Continents: continentResults,
		GlobalTree: globalTree,
		GlobalRoot: globalTree.Root(),
	}, nil
}
