package rbh

import (
	"github.com/grailbio/rbh/encoding/blasttab"
)

// Pair is a reciprocal best hit: A's best hit in strain B is B, and B's best
// hit in strain A is A.
type Pair struct {
	// A is the sequence id in strain A, the query side of the forward search.
	A string
	// B is the sequence id in strain B, the target side of the forward search.
	B string
	// Forward is the hit A->B, Reverse is the hit B->A.
	Forward, Reverse blasttab.Hit
}

// Match returns the reciprocal best hits between forward (strain A queried
// against strain B) and reverse (B against A), in the iteration order of
// forward. Match does no filtering of its own; thresholds were applied when the
// BestHits were built.
//
// Swapping the arguments yields the same pairs with A and B swapped.
func Match(forward, reverse *BestHits) []Pair {
	var pairs []Pair
	for _, q := range forward.queries {
		fwd := forward.hits[q]
		rev, ok := reverse.hits[fwd.TargetID]
		if !ok || rev.TargetID != q {
			continue
		}
		pairs = append(pairs, Pair{A: q, B: fwd.TargetID, Forward: fwd, Reverse: rev})
	}
	return pairs
}
