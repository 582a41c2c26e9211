// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blasttab

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// maxLineSize bounds the length of one record. Lines with -outfmt "6 std stitle"
// can be long, but not this long.
const maxLineSize = 64 << 20

// Reader reads Hits from BLAST tabular output (-outfmt 6 or 7). Comment lines
// (starting with '#') and blank lines are skipped. Fields are separated by
// tabs and are never quoted: a '"' is part of the field.
//
// Example:
//
//   r := blasttab.NewReader(in, cols)
//   for {
//     hit, err := r.Read()
//     if err == io.EOF {
//       break
//     }
//     if _, ok := err.(*blasttab.MalformedRecordError); ok {
//       continue // the record is dropped, reading may go on
//     }
//     if err != nil {
//       return err
//     }
//     ...
//   }
type Reader struct {
	cols    *Columns
	sc      *bufio.Scanner
	line    int
	records int
}

// NewReader creates a Reader that interprets records using the given layout.
func NewReader(in io.Reader, cols *Columns) *Reader {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Reader{cols: cols, sc: sc}
}

// Columns returns the layout used by the reader.
func (r *Reader) Columns() *Columns { return r.cols }

// Records returns the number of non-blank, non-comment records seen so far,
// including malformed ones.
func (r *Reader) Records() int { return r.records }

// Read returns the next hit. It returns io.EOF at the end of input, and a
// *MalformedRecordError for a record that could not be parsed; the caller may
// keep calling Read after the latter. A malformed record never consumes more
// than its own line. Any other error is fatal.
func (r *Reader) Read() (Hit, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSuffix(r.sc.Text(), "\r")
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}
		r.records++
		hit, err := Parse(strings.Split(text, "\t"), r.cols)
		if err != nil {
			err.(*MalformedRecordError).Line = r.line
			return Hit{}, err
		}
		return hit, nil
	}
	if err := r.sc.Err(); err != nil {
		return Hit{}, errors.Wrapf(err, "blasttab: line %d", r.line+1)
	}
	return Hit{}, io.EOF
}

// ReadAll reads hits until the end of input. Unlike Read, it stops at the
// first malformed record.
func (r *Reader) ReadAll() ([]Hit, error) {
	var hits []Hit
	for {
		hit, err := r.Read()
		if err == io.EOF {
			return hits, nil
		}
		if err != nil {
			return hits, err
		}
		hits = append(hits, hit)
	}
}
