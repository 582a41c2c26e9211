// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blasttab

import (
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
)

// Writer writes Hits in a given column layout, so that the output can be read
// back by a Reader with the same layout. Columns that Hit does not model are
// written as "0".
type Writer struct {
	cols *Columns
	w    *tsv.Writer
}

// NewWriter creates a Writer. Call Flush when done.
func NewWriter(out io.Writer, cols *Columns) *Writer {
	return &Writer{cols: cols, w: tsv.NewWriter(out)}
}

// Write appends one record.
func (w *Writer) Write(h Hit) error {
	for _, name := range w.cols.names {
		switch name {
		case QuerySeqID:
			w.w.WriteString(h.QueryID)
		case TargetSeqID:
			w.w.WriteString(h.TargetID)
		case PercentID:
			w.w.WriteString(formatFloat(h.PercentIdentity))
		case Length:
			w.w.WriteInt64(int64(h.AlignmentLength))
		case EValue:
			w.w.WriteString(formatFloat(h.EValue))
		case BitScore:
			w.w.WriteString(formatFloat(h.BitScore))
		case Mismatch:
			w.w.WriteInt64(int64(h.Mismatches))
		case GapOpen:
			w.w.WriteInt64(int64(h.GapOpens))
		case QueryStart:
			w.w.WriteInt64(int64(h.QueryStart))
		case QueryEnd:
			w.w.WriteInt64(int64(h.QueryEnd))
		case TargetStart:
			w.w.WriteInt64(int64(h.TargetStart))
		case TargetEnd:
			w.w.WriteInt64(int64(h.TargetEnd))
		case QueryLen:
			w.w.WriteInt64(int64(h.QueryLen))
		case TargetLen:
			w.w.WriteInt64(int64(h.TargetLen))
		default:
			w.w.WriteString("0")
		}
	}
	return w.w.EndLine()
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error { return w.w.Flush() }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
