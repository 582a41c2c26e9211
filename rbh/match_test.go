package rbh_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/rbh/encoding/blasttab"
	"github.com/grailbio/rbh/rbh"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func pairIDs(pairs []rbh.Pair) [][2]string {
	ids := make([][2]string, len(pairs))
	for i, p := range pairs {
		ids[i] = [2]string{p.A, p.B}
	}
	return ids
}

func TestMatchReciprocal(t *testing.T) {
	fwd, _ := selectBest(testThresholds, hit("g1", "h1", 99, 1e-50, 500))
	rev, _ := selectBest(testThresholds, hit("h1", "g1", 99, 1e-50, 500))
	pairs := rbh.Match(fwd, rev)
	assert.EQ(t, len(pairs), 1)
	expect.EQ(t, pairIDs(pairs), [][2]string{{"g1", "h1"}})
	expect.EQ(t, pairs[0].Forward.TargetID, "h1")
	expect.EQ(t, pairs[0].Reverse.TargetID, "g1")
}

func TestMatchOneSided(t *testing.T) {
	fwd, _ := selectBest(testThresholds, hit("g1", "h1", 99, 1e-50, 500))
	rev, _ := selectBest(testThresholds,
		hit("h1", "g1", 99, 1e-50, 400),
		hit("h1", "g2", 99, 1e-50, 500))
	expect.EQ(t, len(rbh.Match(fwd, rev)), 0)
}

func TestMatchMissingReverse(t *testing.T) {
	fwd, _ := selectBest(testThresholds, hit("g1", "h1", 99, 1e-50, 500))
	// h1's only hit back is filtered out.
	rev, _ := selectBest(testThresholds, hit("h1", "g1", 85, 1e-50, 500))
	expect.EQ(t, len(rbh.Match(fwd, rev)), 0)
	empty, _ := selectBest(testThresholds)
	expect.EQ(t, len(rbh.Match(fwd, empty)), 0)
	expect.EQ(t, len(rbh.Match(empty, fwd)), 0)
}

func TestMatchOrder(t *testing.T) {
	fwd, _ := selectBest(testThresholds,
		hit("g3", "h3", 99, 0, 100),
		hit("g1", "h1", 99, 0, 100),
		hit("g2", "h2", 99, 0, 100),
	)
	rev, _ := selectBest(testThresholds,
		hit("h1", "g1", 99, 0, 100),
		hit("h2", "g2", 99, 0, 100),
		hit("h3", "g3", 99, 0, 100),
	)
	expect.EQ(t, pairIDs(rbh.Match(fwd, rev)), [][2]string{{"g3", "h3"}, {"g1", "h1"}, {"g2", "h2"}})
}

func TestMatchProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		fwd, _ := selectBest(testThresholds, randomHits(r, "g", "h", 6, 6, r.Intn(40))...)
		rev, _ := selectBest(testThresholds, randomHits(r, "h", "g", 6, 6, r.Intn(40))...)

		pairs := rbh.Match(fwd, rev)
		seenA := map[string]bool{}
		seenB := map[string]bool{}
		for _, p := range pairs {
			ft, ok := fwd.Target(p.A)
			assert.True(t, ok)
			assert.EQ(t, ft, p.B)
			rt, ok := rev.Target(p.B)
			assert.True(t, ok)
			assert.EQ(t, rt, p.A)
			assert.False(t, seenA[p.A])
			assert.False(t, seenB[p.B])
			seenA[p.A], seenB[p.B] = true, true
		}
		// Every pair where both directions agree is reported.
		n := 0
		for _, q := range fwd.Queries() {
			ft, _ := fwd.Target(q)
			if rt, ok := rev.Target(ft); ok && rt == q {
				n++
			}
		}
		assert.EQ(t, len(pairs), n)

		// Swapping the directions swaps the pairs.
		swapped := map[[2]string]bool{}
		for _, p := range rbh.Match(rev, fwd) {
			swapped[[2]string{p.B, p.A}] = true
		}
		assert.EQ(t, len(swapped), len(pairs))
		for _, p := range pairs {
			assert.True(t, swapped[[2]string{p.A, p.B}])
		}
	}
}

func TestMatchIgnoresThresholds(t *testing.T) {
	// BestHits built elsewhere are matched as is.
	fwd, err := rbh.FromHits([]blasttab.Hit{hit("g1", "h1", 10, 1, 1)})
	assert.NoError(t, err)
	rev, err := rbh.FromHits([]blasttab.Hit{hit("h1", "g1", 10, 1, 1)})
	assert.NoError(t, err)
	expect.EQ(t, len(rbh.Match(fwd, rev)), 1)
}
