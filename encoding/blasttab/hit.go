// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blasttab

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Hit is one alignment reported by BLAST between a query and a target
// (subject) sequence.
type Hit struct {
	QueryID         string
	TargetID        string
	PercentIdentity float64 // in [0,100]
	AlignmentLength int     // > 0
	EValue          float64 // >= 0
	BitScore        float64

	// The fields below are filled only when the column layout carries them;
	// zero otherwise.
	Mismatches  int
	GapOpens    int
	QueryStart  int
	QueryEnd    int
	TargetStart int
	TargetEnd   int
	QueryLen    int
	TargetLen   int
}

// Coverage returns the fraction of the query covered by the alignment,
// computed as the longer of the query and target alignment spans divided by
// the query length.  ok is false if the hit lacks coordinates or qlen.
//
// Target coordinates of a minus-strand blastn hit are reversed (sstart >
// send); the span is computed on the absolute difference.
func (h Hit) Coverage() (cov float64, ok bool) {
	if h.QueryLen <= 0 || h.QueryStart == 0 || h.QueryEnd == 0 {
		return 0, false
	}
	span := absInt(h.QueryEnd-h.QueryStart) + 1
	if h.TargetStart != 0 && h.TargetEnd != 0 {
		if s := absInt(h.TargetEnd-h.TargetStart) + 1; s > span {
			span = s
		}
	}
	return float64(span) / float64(h.QueryLen), true
}

func (h Hit) String() string {
	return fmt.Sprintf("%s->%s(pident=%v,len=%d,evalue=%g,bits=%v)",
		h.QueryID, h.TargetID, h.PercentIdentity, h.AlignmentLength, h.EValue, h.BitScore)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// MalformedRecordError is returned for a record that cannot be turned into a
// Hit. Line is 1-based, or 0 if unknown.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("blasttab: line %d: malformed record: %s", e.Line, e.Reason)
	}
	return "blasttab: malformed record: " + e.Reason
}

func malformed(format string, args ...interface{}) error {
	return &MalformedRecordError{Reason: fmt.Sprintf(format, args...)}
}

// Parse converts the fields of one tabular record into a Hit. Columns not
// known to the layout are ignored. Parse is pure; it returns a
// *MalformedRecordError on failure.
func Parse(fields []string, cols *Columns) (Hit, error) {
	var h Hit
	if len(fields) < cols.MinFields() {
		return h, malformed("got %d fields, want at least %d", len(fields), cols.MinFields())
	}
	h.QueryID = strings.TrimSpace(fields[cols.index[QuerySeqID]])
	if h.QueryID == "" {
		return h, malformed("empty %s", QuerySeqID)
	}
	h.TargetID = strings.TrimSpace(fields[cols.index[TargetSeqID]])
	if h.TargetID == "" {
		return h, malformed("empty %s", TargetSeqID)
	}

	var err error
	if h.PercentIdentity, err = parseFloat(fields, cols, PercentID); err != nil {
		return h, err
	}
	if h.PercentIdentity < 0 || h.PercentIdentity > 100 {
		return h, malformed("%s %v outside [0,100]", PercentID, h.PercentIdentity)
	}
	if h.AlignmentLength, err = parseInt(fields, cols, Length); err != nil {
		return h, err
	}
	if h.AlignmentLength <= 0 {
		return h, malformed("%s %d is not positive", Length, h.AlignmentLength)
	}
	if h.EValue, err = parseFloat(fields, cols, EValue); err != nil {
		return h, err
	}
	if h.EValue < 0 {
		return h, malformed("%s %v is negative", EValue, h.EValue)
	}
	if h.BitScore, err = parseFloat(fields, cols, BitScore); err != nil {
		return h, err
	}

	optional := []struct {
		name string
		dst  *int
	}{
		{Mismatch, &h.Mismatches},
		{GapOpen, &h.GapOpens},
		{QueryStart, &h.QueryStart},
		{QueryEnd, &h.QueryEnd},
		{TargetStart, &h.TargetStart},
		{TargetEnd, &h.TargetEnd},
		{QueryLen, &h.QueryLen},
		{TargetLen, &h.TargetLen},
	}
	for _, o := range optional {
		i, ok := cols.index[o.name]
		if !ok || i >= len(fields) {
			continue
		}
		if *o.dst, err = parseInt(fields, cols, o.name); err != nil {
			return h, err
		}
	}
	return h, nil
}

func parseFloat(fields []string, cols *Columns, name string) (float64, error) {
	s := strings.TrimSpace(fields[cols.index[name]])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, malformed("%s: cannot parse %q as a number", name, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformed("%s: %q is not a finite number", name, s)
	}
	return v, nil
}

func parseInt(fields []string, cols *Columns, name string) (int, error) {
	s := strings.TrimSpace(fields[cols.index[name]])
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed("%s: cannot parse %q as an integer", name, s)
	}
	return v, nil
}
