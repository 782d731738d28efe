package engine

import (
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/proof"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// MembershipProof is the full (cell_proof, country_proof) pair a caller
// needs to demonstrate address-in-district membership against the
// global root a BuildResult sealed (spec.md §4.8).
type MembershipProof struct {
	CellProof    proof.CellProof
	CountryProof proof.CountryProof
}

// GenerateMembershipProof looks up countryCode/continent within r.Root
// and produces the full sibling-path chain for cellID within
// regionCode. It is on-demand, not part of Build: a caller holding the
// in-memory BuildResult returned by Build or a rebuild (a Repository
// stores roots only, not trees) calls this per query rather than the
// engine pre-computing every cell's
// proof during a build.
func (r *BuildResult) GenerateMembershipProof(countryCode, regionCode, cellID string) (MembershipProof, error) {
	const op = "engine.GenerateMembershipProof"

	cacheKey := countryCode + "/" + regionCode + "/" + cellID
	if r.proofCache != nil {
		if cached, ok := r.proofCache.Get(cacheKey); ok {
			return cached.(MembershipProof), nil
		}
	}

	continentTag, ok := global.ContinentOf(countryCode)
	if !ok {
		return MembershipProof{}, atlaserr.New(atlaserr.KindInvalidInput, op, "no registered continent for country "+countryCode)
	}
	continent, ok := r.Root.Continents[continentTag]
	if !ok {
		return MembershipProof{}, atlaserr.New(atlaserr.KindInvalidInput, op, "continent "+continentTag+" not present in this build")
	}
	country, ok := continent.Countries[countryCode]
	if !ok {
		return MembershipProof{}, atlaserr.New(atlaserr.KindInvalidInput, op, "country "+countryCode+" not present in this build")
	}
	region, ok := country.Regions[regionCode]
	if !ok {
		return MembershipProof{}, atlaserr.New(atlaserr.KindInvalidInput, op, "region "+regionCode+" not present in country "+countryCode)
	}

	cellProof, err := proof.GenerateCellProof(region, country.RegionTree, countryCode, merkletree.SortKey{LayerType: "cell", ID: cellID})
	if err != nil {
		return MembershipProof{}, err
	}
	countryProof, err := proof.GenerateCountryProof(continent, r.Root.GlobalTree, countryCode)
	if err != nil {
		return MembershipProof{}, err
	}

	result := MembershipProof{CellProof: cellProof, CountryProof: countryProof}
	if r.proofCache != nil {
		r.proofCache.Set(cacheKey, result, 1)
	}
	return result, nil
}
