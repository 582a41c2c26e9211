package main

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/rbh/rbh"
	"github.com/klauspost/compress/gzip"
)

// detailColumns are appended to the header by -detail. They describe the
// forward hit of each pair.
var detailColumns = []string{"identity", "coverage", "evalue", "bitscore"}

// writePairs writes one line per pair, preceded by a header naming the two
// strains. A path ending in .gz is gzip-compressed.
func writePairs(ctx context.Context, path string, names [2]string, pairs []rbh.Pair, detail bool) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	e := errors.Once{}
	defer func() {
		e.Set(out.Close(ctx))
		if err == nil {
			err = e.Err()
		}
	}()

	var w io.Writer = out.Writer(ctx)
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(w)
		defer func() { e.Set(gz.Close()) }()
		w = gz
	}
	tw := tsv.NewWriter(w)
	tw.WriteString(names[0])
	tw.WriteString(names[1])
	if detail {
		for _, col := range detailColumns {
			tw.WriteString(col)
		}
	}
	if err := tw.EndLine(); err != nil {
		return errors.E(err, "write", path)
	}
	for _, p := range pairs {
		tw.WriteString(p.A)
		tw.WriteString(p.B)
		if detail {
			tw.WriteString(formatFloat(p.Forward.PercentIdentity))
			if c, ok := p.Forward.Coverage(); ok {
				tw.WriteString(strconv.FormatFloat(c, 'f', 4, 64))
			} else {
				tw.WriteString("NA")
			}
			tw.WriteString(formatFloat(p.Forward.EValue))
			tw.WriteString(formatFloat(p.Forward.BitScore))
		}
		if err := tw.EndLine(); err != nil {
			return errors.E(err, "write", path)
		}
	}
	if err := tw.Flush(); err != nil {
		return errors.E(err, "flush", path)
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// fingerprint summarizes the pair ids, in order, into one number so that two
// runs can be compared from their logs.
func fingerprint(pairs []rbh.Pair) uint64 {
	var h uint64
	for _, p := range pairs {
		h = farm.Hash64WithSeed([]byte(p.A), h)
		h = farm.Hash64WithSeed([]byte(p.B), h)
	}
	return h
}
