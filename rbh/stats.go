package rbh

import "github.com/grailbio/base/errors"

// ErrEmptyInput is returned by ReadBestHits in strict mode for a direction
// without any hit record.
var ErrEmptyInput = errors.E(errors.Invalid, "rbh: hit stream is empty")

// Stats counts what happened to the records of one search direction.
type Stats struct {
	// Records is the # of non-blank, non-comment records read, malformed ones
	// included.
	Records int
	// Malformed is the # of records that could not be parsed and were skipped.
	Malformed int
	// Hits is the # of hits that were parsed.
	Hits int
	// Rejected is the # of hits that failed the thresholds.
	Rejected int
	// Queries is the # of distinct query ids among parsed hits.
	Queries int
	// BestHits is the # of queries with at least one accepted hit.
	BestHits int
	// Empty is set if the direction had no hit record at all.
	Empty bool
}

// Merge adds the field values of the two Stats objects and creates new Stats.
// Empty is set only if both are empty.
func (s Stats) Merge(o Stats) Stats {
	s.Records += o.Records
	s.Malformed += o.Malformed
	s.Hits += o.Hits
	s.Rejected += o.Rejected
	s.Queries += o.Queries
	s.BestHits += o.BestHits
	s.Empty = s.Empty && o.Empty
	return s
}
