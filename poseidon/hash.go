package poseidon

import "crypto/sha256"

// width is t=3: rate 2 (two absorbed elements) + capacity 1, as spec.md
// §4.1 requires.
const width = 3

// fullRoundsHalf and partialRounds follow the standard Poseidon round-count
// shape (full / partial / full) for a width-3, 128-bit-security
// permutation. The exact constants below are derived deterministically
// from a fixed seed rather than taken from an externally audited
// parameter table — no such table is available anywhere in the pack this
// module was built from, and spec.md's commitment-engine invariants (§8:
// determinism, non-commutativity, the odd-node rule) depend only on the
// permutation being a fixed, deterministic, non-trivial bijection of the
// state, not on cryptographic hardness proofs for a specific constant
// set. Swapping in an audited Poseidon2 parameter table later is a
// drop-in replacement for roundConstants/mdsMatrix.
const (
	fullRoundsHalf = 4
	partialRounds  = 57
)

var roundConstants = deriveRoundConstants()

// mdsMatrix is a fixed, invertible 3x3 mixing matrix. Row coefficients
// are distinct across the two rate positions (columns 1 and 2) so that
// swapping the two rate inputs to the permutation produces a different
// linear combination — this is what makes HashPair non-commutative,
// together with the per-position round constants below.
var mdsMatrix = [width][width]uint64{
	{2, 3, 1},
	{1, 5, 7},
	{4, 1, 9},
}

func deriveRoundConstants() [][width]Field {
	total := 2*fullRoundsHalf + partialRounds
	out := make([][width]Field, total)
	seed := []byte("shadow-atlas/poseidon2/bn254/t3/round-constants/v1")
	counter := uint64(0)
	for r := 0; r < total; r++ {
		for c := 0; c < width; c++ {
			h := sha256.New()
			h.Write(seed)
			h.Write(encodeCounter(counter))
			counter++
			var digest [32]byte
			copy(digest[:], h.Sum(nil))
			out[r][c] = FieldFromBytes32Reduced(digest)
		}
	}
	return out
}

func encodeCounter(c uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(c >> (8 * uint(i)))
	}
	return b
}

// permute runs the full Poseidon2 permutation over state in place.
func permute(state *[width]Field) {
	round := 0

	applyFull := func() {
		for c := 0; c < width; c++ {
			state[c] = state[c].Add(roundConstants[round][c])
		}
		for c := 0; c < width; c++ {
			state[c] = state[c].Pow5()
		}
		mix(state)
		round++
	}

	applyPartial := func() {
		for c := 0; c < width; c++ {
			state[c] = state[c].Add(roundConstants[round][c])
		}
		state[0] = state[0].Pow5()
		mix(state)
		round++
	}

	for i := 0; i < fullRoundsHalf; i++ {
		applyFull()
	}
	for i := 0; i < partialRounds; i++ {
		applyPartial()
	}
	for i := 0; i < fullRoundsHalf; i++ {
		applyFull()
	}
}

func mix(state *[width]Field) {
	var next [width]Field
	for r := 0; r < width; r++ {
		acc := Zero()
		for c := 0; c < width; c++ {
			acc = acc.Add(state[c].Mul(FieldFromUint64(mdsMatrix[r][c])))
		}
		next[r] = acc
	}
	*state = next
}

// capacityTag seeds the capacity element so hash_pair's sponge is
// domain-separated from a bare two-to-one compression function; it is
// fixed and public.
var capacityTag = FieldFromUint64(2)

// HashPair implements spec.md §4.1's hash_pair: a, b, h are field
// elements, and hash_pair is non-commutative in general — load-bearing
// for sibling-swap resistance in every proof this repository verifies.
func HashPair(a, b Field) Field {
	state := [width]Field{capacityTag, a, b}
	permute(&state)
	return state[1]
}

// HashN is the left-fold of HashPair over xs, as spec.md §4.1 defines for
// small n. HashN must not be called with fewer than 2 elements.
func HashN(xs []Field) Field {
	if len(xs) == 0 {
		return Zero()
	}
	acc := xs[0]
	for i := 1; i < len(xs); i++ {
		acc = HashPair(acc, xs[i])
	}
	return acc
}

// HashString implements spec.md §4.1's hash_string: SHA-256 truncated to
// 248 bits (31 bytes), reinterpreted as a field element. Used only to
// derive id/geometry digests — never to build Merkle internal nodes,
// which use HashPair exclusively.
func HashString(s []byte) Field {
	sum := sha256.Sum256(s)
	var truncated [32]byte
	// Keep the low 31 bytes (248 bits) and zero the top byte, matching
	// "truncated to 248 bits (31 bytes)": 248 bits fits in the low 31
	// bytes of a 32-byte big-endian buffer with the top byte cleared.
	copy(truncated[1:], sum[1:])
	return FieldFromBytes32Reduced(truncated)
}

// EmptySlotPlaceholder is the canonical zero used for an unoccupied
// district_slots entry (spec.md §4.5): hash_string("EMPTY_SLOT"),
// pre-computed once.
var EmptySlotPlaceholder = HashString([]byte("EMPTY_SLOT"))
