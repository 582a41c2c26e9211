// Package rbh calls putative orthologs between two strains as reciprocal best
// hits (RBH).
//
// Given hits of strain A queried against strain B (forward) and of B against A
// (reverse):
//
//   1. each direction is folded into a BestHits by a Selector, keeping for
//      every query the best hit that passes the Thresholds;
//
//   2. Match keeps the forward best hits a->b for which b's reverse best hit
//      is a.
//
// Ranking among accepted hits of one query: higher bit score, then lower
// e-value, then higher percent identity, then earlier position in the hit
// stream.
package rbh
