// Package poseidon implements spec.md §4.1's hash primitive: Poseidon2
// over the BN254 scalar field, width t=3 (rate 2, capacity 1). Every
// Merkle leaf, internal node and digest in this repository is carried as
// a Field value from this package.
//
// Field arithmetic is built directly on github.com/consensys/gnark-crypto's
// bn254 scalar field element type, the same carrier the wider retrieval
// pack (vocdoni-davinci-node, vocdoni-lean-imt-go, certenIO-certen-validator,
// kysee-zk-chains) uses for exactly this purpose.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/shadowatlas/atlas/shared/atlaserr"
	"github.com/shadowatlas/atlas/shared/bytesutil"
)

// Field is one element of the BN254 scalar field. It is the type every
// MerkleLeaf, InternalNode, RegionRoot, CountryRoot, ContinentRoot and
// GlobalRoot in this repository is represented as (spec.md §3).
type Field struct {
	e fr.Element
}

// Zero returns the additive identity.
func Zero() Field {
	var f Field
	f.e.SetZero()
	return f
}

// FieldFromUint64 builds a Field from a small integer, used for the
// authority_level leaf component (spec.md §4.6) and round constants.
func FieldFromUint64(v uint64) Field {
	var f Field
	f.e.SetUint64(v)
	return f
}

// FieldFromBytes32 converts a big-endian 32-byte value into the field.
// Per spec.md §4.1, inputs outside the scalar field must be rejected with
// InvalidFieldElement; callers are responsible for pre-reducing, so this
// constructor is strict rather than silently reducing mod q.
func FieldFromBytes32(b [32]byte) (Field, error) {
	bi := new(big.Int).SetBytes(b[:])
	if bi.Cmp(fr.Modulus()) >= 0 {
		return Field{}, atlaserr.New(atlaserr.KindInvalidInput, "poseidon.FieldFromBytes32", "value is not a valid BN254 scalar field element")
	}
	var f Field
	f.e.SetBigInt(bi)
	return f, nil
}

// FieldFromBytes32Reduced reduces a big-endian 32-byte value modulo the
// field order without rejecting out-of-range inputs. HashString uses it
// for its SHA-256-truncated-to-248-bit digests (spec.md §4.1, §9), which
// are always strictly below the modulus (2^248 < BN254's ~2^254 modulus),
// so there the reduction never changes the value. deriveRoundConstants
// uses it for full 256-bit SHA-256 digests, where the reduction does
// take effect.
func FieldFromBytes32Reduced(b [32]byte) Field {
	bi := new(big.Int).SetBytes(b[:])
	bi.Mod(bi, fr.Modulus())
	var f Field
	f.e.SetBigInt(bi)
	return f
}

// Bytes32 serializes the Field as a big-endian 32-byte array, the wire
// format spec.md §4.1 and §6 require for every published hash.
func (f Field) Bytes32() [32]byte {
	return f.e.Bytes()
}

// Equal reports whether two Field values are the same scalar.
func (f Field) Equal(o Field) bool {
	return f.e.Equal(&o.e)
}

// Hex renders the Field as the "0x"-prefixed 64-char lowercase hex
// string spec.md §6 requires for every published hash. Shared by
// MarshalJSON and every component that serializes a Field into an
// outbound document.
func (f Field) Hex() string {
	return bytesutil.HexEncode(f.Bytes32())
}

// Add returns f + o in the field.
func (f Field) Add(o Field) Field {
	var r Field
	r.e.Add(&f.e, &o.e)
	return r
}

// Mul returns f * o in the field.
func (f Field) Mul(o Field) Field {
	var r Field
	r.e.Mul(&f.e, &o.e)
	return r
}

// Pow5 returns f^5, the Poseidon2 S-box over BN254 (gcd(5, p-1) == 1).
func (f Field) Pow5() Field {
	var sq, quad Field
	sq.e.Square(&f.e)
	quad.e.Square(&sq.e)
	var r Field
	r.e.Mul(&quad.e, &f.e)
	return r
}

// BigInt returns the canonical big.Int representation, used only for
// diagnostics and test fixtures.
func (f Field) BigInt() *big.Int {
	return f.e.BigInt(new(big.Int))
}
