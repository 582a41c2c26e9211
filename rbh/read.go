package rbh

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/rbh/encoding/blasttab"
)

// ReadBestHits reads a whole hit stream and selects the best hit of every
// query. name labels the stream in log messages.
//
// Malformed records are logged (up to opts.MaxLoggedMalformed of them),
// counted in Stats.Malformed and skipped, unless opts.Strict is set, in which
// case the first one is returned as a *blasttab.MalformedRecordError. A stream
// without any record yields an empty BestHits and Stats.Empty; it is logged but
// is not an error unless opts.Strict is set, in which case ErrEmptyInput is
// returned.
func ReadBestHits(r *blasttab.Reader, name string, opts Opts) (*BestHits, Stats, error) {
	sel := NewSelector(opts.Thresholds)
	malformed := 0
	for {
		h, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if _, ok := err.(*blasttab.MalformedRecordError); !ok {
				return nil, Stats{}, errors.E(err, "read", name)
			}
			if opts.Strict {
				return nil, Stats{}, err
			}
			malformed++
			if malformed <= opts.MaxLoggedMalformed {
				log.Error.Printf("%s: skipping record: %v", name, err)
			} else {
				log.Debug.Printf("%s: skipping record: %v", name, err)
			}
			continue
		}
		sel.Add(h)
	}
	best, stats := sel.Finish()
	stats.Records = r.Records()
	stats.Malformed = malformed
	stats.Empty = stats.Records == 0
	if malformed > opts.MaxLoggedMalformed {
		log.Error.Printf("%s: %d more malformed records not shown", name, malformed-opts.MaxLoggedMalformed)
	}
	if stats.Empty {
		if opts.Strict {
			return nil, stats, ErrEmptyInput
		}
		log.Error.Printf("%s: no hit records; no reciprocal pair can involve this direction", name)
	}
	log.Printf("%s: %d records, %d malformed, %d hits, %d rejected, %d queries, %d with a best hit",
		name, stats.Records, stats.Malformed, stats.Hits, stats.Rejected, stats.Queries, stats.BestHits)
	return best, stats, nil
}

// ReadBestHitsFile is ReadBestHits on a file. Files ending in a compression
// suffix (.gz, .zst, ...) are decompressed on the fly.
func ReadBestHitsFile(ctx context.Context, path string, cols *blasttab.Columns, opts Opts) (best *BestHits, stats Stats, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, Stats{}, errors.E(err, "open", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", path)
		}
	}()
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		defer func() {
			if e := u.Close(); e != nil && err == nil {
				err = errors.E(e, "close", path)
			}
		}()
		inr = u
	}
	return ReadBestHits(blasttab.NewReader(inr, cols), path, opts)
}
