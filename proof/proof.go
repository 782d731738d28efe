// Package proof implements spec.md §4.8's membership proof generator and
// verifier: a (cell_proof, country_proof) pair that lets a verifier walk
// from a leaf hash up to the claimed global root without learning which
// cell, region or country the prover is in beyond what the public
// district hashes reveal.
package proof

import (
	"github.com/shadowatlas/atlas/global"
	"github.com/shadowatlas/atlas/merkletree"
	"github.com/shadowatlas/atlas/poseidon"
	"github.com/shadowatlas/atlas/shared/atlaserr"
)

// CellProof is the sibling path from a cell leaf up to the country
// commitment, spanning the cell-leaf tree and the region tree with the
// REGION: and COUNTRY: domain-separation folds in between (spec.md §4.7,
// §4.8).
type CellProof struct {
	RegionCode         string
	CountryCode        string
	CellTreeSiblings   merkletree.SiblingPath
	RegionTreeSiblings merkletree.SiblingPath
}

// CountryProof is the sibling path from a country commitment up to the
// global root, spanning the country tree and the global tree with the
// CONTINENT: domain-separation fold in between.
type CountryProof struct {
	ContinentTag        string
	CountryTreeSiblings merkletree.SiblingPath
	GlobalTreeSiblings  merkletree.SiblingPath
}

// GenerateCellProof extracts a CellProof for cellKey from a built
// region, given the country's region tree (spec.md §4.8 generation
// side).
func GenerateCellProof(region global.RegionResult, regionTree *merkletree.Tree, countryCode string, cellKey merkletree.SortKey) (CellProof, error) {
	cellSiblings, err := region.CellTree.Siblings(cellKey)
	if err != nil {
		return CellProof{}, err
	}
	regionSiblings, err := regionTree.Siblings(merkletree.SortKey{LayerType: "region", ID: region.RegionCode})
	if err != nil {
		return CellProof{}, err
	}
	return CellProof{
		RegionCode:         region.RegionCode,
		CountryCode:        countryCode,
		CellTreeSiblings:   cellSiblings,
		RegionTreeSiblings: regionSiblings,
	}, nil
}

// GenerateCountryProof extracts a CountryProof for a country from its
// continent's country tree and the global tree.
func GenerateCountryProof(continent global.ContinentResult, globalTree *merkletree.Tree, countryCode string) (CountryProof, error) {
	countrySiblings, err := continent.CountryTree.Siblings(merkletree.SortKey{LayerType: "country", ID: countryCode})
	if err != nil {
		return CountryProof{}, err
	}
	continentSiblings, err := globalTree.Siblings(merkletree.SortKey{LayerType: "continent", ID: continent.ContinentTag})
	if err != nil {
		return CountryProof{}, err
	}
	return CountryProof{
		ContinentTag:        continent.ContinentTag,
		CountryTreeSiblings: countrySiblings,
		GlobalTreeSiblings:  continentSiblings,
	}, nil
}

// ReconstructCountryRoot implements spec.md §4.8 verification step 2:
// walk cell_proof from the leaf, folding in the REGION: and COUNTRY:
// domain tags at the seams between the cell-leaf tree and the region
// tree.
func ReconstructCountryRoot(leaf poseidon.Field, cp CellProof) poseidon.Field {
	cellRoot := merkletree.VerifyPath(leaf, cp.CellTreeSiblings)
	regionCommitment := global.DomainSeparate("REGION:", cp.RegionCode, cellRoot)
	regionTreeRoot := merkletree.VerifyPath(regionCommitment, cp.RegionTreeSiblings)
	return global.DomainSeparate("COUNTRY:", cp.CountryCode, regionTreeRoot)
}

// ReconstructGlobalRoot implements spec.md §4.8 verification step 3:
// continue country_proof from the claimed country commitment up through
// the CONTINENT: fold to the global root.
func ReconstructGlobalRoot(countryCommitment poseidon.Field, ctp CountryProof) poseidon.Field {
	countryTreeRoot := merkletree.VerifyPath(countryCommitment, ctp.CountryTreeSiblings)
	continentCommitment := global.DomainSeparate("CONTINENT:", ctp.ContinentTag, countryTreeRoot)
	return merkletree.VerifyPath(continentCommitment, ctp.GlobalTreeSiblings)
}

// Verify implements spec.md §4.8 verification steps 1-4 end to end:
// reconstruct the country commitment from leaf + cell_proof, continue to
// the global root via country_proof, and accept iff it equals
// claimedGlobalRoot.
func Verify(leaf poseidon.Field, cp CellProof, ctp CountryProof, claimedGlobalRoot poseidon.Field) bool {
	countryCommitment := ReconstructCountryRoot(leaf, cp)
	reconstructed := ReconstructGlobalRoot(countryCommitment, ctp)
	return reconstructed.Equal(claimedGlobalRoot)
}

// Nullifier implements spec.md §4.8's nullifier derivation:
// hash_n(user_secret, context_id, epoch). Preventing double-use of a
// nullifier is an application-layer concern, out of scope here.
func Nullifier(userSecret, contextID poseidon.Field, epoch uint64) poseidon.Field {
	return poseidon.HashN([]poseidon.Field{userSecret, contextID, poseidon.FieldFromUint64(epoch)})
}

// errInvalidProof documents the verifier's one failure mode for callers
// that want an atlaserr.Error instead of a bare bool.
var errInvalidProof = atlaserr.New(atlaserr.KindValidationFailed, "proof.Verify", "reconstructed global root does not match claimed root")

// VerifyOrError is Verify but returns the standard error taxonomy.
func VerifyOrError(leaf poseidon.Field, cp CellProof, ctp CountryProof, claimedGlobalRoot poseidon.Field) error {
	if Verify(leaf, cp, ctp, claimedGlobalRoot) {
		return nil
	}
	return errInvalidProof
}
