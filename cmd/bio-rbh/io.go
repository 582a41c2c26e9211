package main

// This file defines writeBestHits and readBestHits. The besthits subcommand
// dumps the best hits of one search direction into a recordio file, and
// "match -rio" reads two of them back, so that the directions can be processed
// on different machines or at different times.

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/rbh/encoding/blasttab"
	"github.com/grailbio/rbh/rbh"
)

const (
	// <fileVersionHeader, fileVersion> is stored in a recordio header.
	fileVersionHeader = "rbhversion"
	fileVersion       = "RBH_V1"
)

// bestHitsTrailer is stored in the trailer section of the recordio file.
type bestHitsTrailer struct {
	// Source is the hit file the best hits were selected from.
	Source string
	// Opts are the options used to select the best hits.
	Opts rbh.Opts
	// N is the number of records.
	N int
}

// writeBestHits writes best to path, one gob-encoded hit per record, in query
// insertion order.
func writeBestHits(ctx context.Context, path, source string, best *rbh.BestHits, opts rbh.Opts) (err error) {
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", path)
		}
	}()
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(fileVersionHeader, fileVersion)
	w.AddHeader(recordio.KeyTrailer, true)
	hits := best.Hits()
	for _, h := range hits {
		b := bytes.NewBuffer(nil)
		if err := gob.NewEncoder(b).Encode(h); err != nil {
			return errors.E(err, "encode", h.QueryID)
		}
		w.Append(b.Bytes())
	}
	b := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(b).Encode(bestHitsTrailer{Source: source, Opts: opts, N: len(hits)}); err != nil {
		return errors.E(err, "encode trailer")
	}
	w.SetTrailer(b.Bytes())
	if err := w.Finish(); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}

// readBestHits reads a file created by writeBestHits. It also returns the
// options the best hits were selected with.
func readBestHits(ctx context.Context, path string) (best *rbh.BestHits, opts rbh.Opts, err error) {
	recordiozstd.Init()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, opts, errors.E(err, "open", path)
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = errors.E(e, "close", path)
		}
	}()
	r := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	versionFound := false
	for _, kv := range r.Header() {
		if kv.Key == fileVersionHeader {
			if v, _ := kv.Value.(string); v != fileVersion {
				return nil, opts, errors.E(errors.Invalid, path, "version mismatch, got", v, "expect", fileVersion)
			}
			versionFound = true
			break
		}
	}
	if !versionFound {
		return nil, opts, errors.E(errors.Invalid, path, fileVersionHeader, "header not found")
	}
	var trailer bestHitsTrailer
	if err := gob.NewDecoder(bytes.NewReader(r.Trailer())).Decode(&trailer); err != nil {
		return nil, opts, errors.E(errors.Integrity, err, path, "trailer")
	}

	hits := make([]blasttab.Hit, 0, trailer.N)
	for r.Scan() {
		var h blasttab.Hit
		if err := gob.NewDecoder(bytes.NewReader(r.Get().([]byte))).Decode(&h); err != nil {
			return nil, opts, errors.E(errors.Integrity, err, path)
		}
		hits = append(hits, h)
	}
	if err := r.Err(); err != nil {
		return nil, opts, errors.E(err, "read", path)
	}
	if len(hits) != trailer.N {
		return nil, opts, errors.E(errors.Integrity, path, fmt.Sprintf("truncated: %d of %d records", len(hits), trailer.N))
	}
	if best, err = rbh.FromHits(hits); err != nil {
		return nil, opts, errors.E(errors.Integrity, err, path)
	}
	log.Printf("%s: %d best hits selected from %s (min identity %v, max evalue %v)",
		path, best.Len(), trailer.Source, trailer.Opts.MinIdentity, trailer.Opts.MaxEValue)
	return best, trailer.Opts, nil
}
