package rbh

import (
	"fmt"

	"github.com/grailbio/rbh/encoding/blasttab"
)

// BestHits maps each query id of one search direction to its single best hit.
// Iteration follows the order in which query ids first appeared in the hit
// stream. A BestHits is never modified after construction, and is safe for
// concurrent reads.
type BestHits struct {
	queries []string
	hits    map[string]blasttab.Hit
}

// FromHits creates a BestHits holding the given hits, in order. It is the
// inverse of Hits, and fails if two hits share a query id.
func FromHits(hits []blasttab.Hit) (*BestHits, error) {
	b := &BestHits{
		queries: make([]string, 0, len(hits)),
		hits:    make(map[string]blasttab.Hit, len(hits)),
	}
	for _, h := range hits {
		if _, ok := b.hits[h.QueryID]; ok {
			return nil, fmt.Errorf("rbh: duplicate best hit for query %s", h.QueryID)
		}
		b.queries = append(b.queries, h.QueryID)
		b.hits[h.QueryID] = h
	}
	return b, nil
}

// Len returns the number of queries with a best hit.
func (b *BestHits) Len() int { return len(b.queries) }

// Get returns the best hit of the query, if any.
func (b *BestHits) Get(query string) (blasttab.Hit, bool) {
	h, ok := b.hits[query]
	return h, ok
}

// Target returns the target id of the query's best hit, if any.
func (b *BestHits) Target(query string) (string, bool) {
	h, ok := b.hits[query]
	return h.TargetID, ok
}

// Queries returns the query ids in iteration order. The caller owns the slice.
func (b *BestHits) Queries() []string {
	return append([]string(nil), b.queries...)
}

// Hits returns the best hits in iteration order. The caller owns the slice.
func (b *BestHits) Hits() []blasttab.Hit {
	hits := make([]blasttab.Hit, len(b.queries))
	for i, q := range b.queries {
		hits[i] = b.hits[q]
	}
	return hits
}

// Selector folds a stream of hits, in any query order, into a BestHits. A
// Selector is used once: Add the hits in stream order, then call Finish.
// Thread compatible.
type Selector struct {
	thresholds Thresholds
	// order lists query ids in order of first appearance, whether or not any of
	// their hits is accepted.
	order []string
	seen  map[string]struct{}
	best  map[string]blasttab.Hit
	stats Stats
	done  bool
}

// NewSelector creates a Selector that only retains hits accepted by the
// thresholds.
func NewSelector(t Thresholds) *Selector {
	return &Selector{
		thresholds: t,
		seen:       map[string]struct{}{},
		best:       map[string]blasttab.Hit{},
	}
}

// Add offers the next hit of the stream. A hit failing the thresholds is
// dropped; it is not an error.
//
// REQUIRES: Finish hasn't been called.
func (s *Selector) Add(h blasttab.Hit) {
	if s.done {
		panic("rbh: Selector.Add called after Finish")
	}
	s.stats.Hits++
	if _, ok := s.seen[h.QueryID]; !ok {
		s.seen[h.QueryID] = struct{}{}
		s.order = append(s.order, h.QueryID)
	}
	if !s.thresholds.Accept(h) {
		s.stats.Rejected++
		return
	}
	if cur, ok := s.best[h.QueryID]; !ok || better(h, cur) {
		s.best[h.QueryID] = h
	}
}

// Finish returns the best hits and the selection stats. Stats.Records,
// Stats.Malformed and Stats.Empty are left for the caller, which knows about
// the records that never became hits.
//
// REQUIRES: Finish hasn't been called.
func (s *Selector) Finish() (*BestHits, Stats) {
	if s.done {
		panic("rbh: Selector.Finish called twice")
	}
	s.done = true
	b := &BestHits{
		queries: make([]string, 0, len(s.best)),
		hits:    s.best,
	}
	for _, q := range s.order {
		if _, ok := s.best[q]; ok {
			b.queries = append(b.queries, q)
		}
	}
	stats := s.stats
	stats.Queries = len(s.order)
	stats.BestHits = len(b.queries)
	s.order, s.seen, s.best = nil, nil, nil
	return b, stats
}

// better reports whether a ranks strictly above b: higher bit score, then
// lower e-value, then higher percent identity. Hits that tie on all three are
// not better than each other, so the one seen first stays.
func better(a, b blasttab.Hit) bool {
	if a.BitScore != b.BitScore {
		return a.BitScore > b.BitScore
	}
	if a.EValue != b.EValue {
		return a.EValue < b.EValue
	}
	return a.PercentIdentity > b.PercentIdentity
}
