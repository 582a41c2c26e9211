// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package blasttab

import (
	"fmt"
	"strconv"
	"strings"
)

// Column names, as understood by the BLAST+ "-outfmt" option.
const (
	QuerySeqID  = "qseqid"
	TargetSeqID = "sseqid"
	PercentID   = "pident"
	Length      = "length"
	Mismatch    = "mismatch"
	GapOpen     = "gapopen"
	QueryStart  = "qstart"
	QueryEnd    = "qend"
	TargetStart = "sstart"
	TargetEnd   = "send"
	EValue      = "evalue"
	BitScore    = "bitscore"
	QueryLen    = "qlen"
	TargetLen   = "slen"
)

// DefaultFormat is the "-outfmt" value the pipeline passes to blastn/blastp.
// It carries everything needed for identity, e-value and coverage filtering.
const DefaultFormat = "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore qlen slen"

// stdColumns is what BLAST+ substitutes for the "std" keyword.
var stdColumns = []string{
	QuerySeqID, TargetSeqID, PercentID, Length, Mismatch, GapOpen,
	QueryStart, QueryEnd, TargetStart, TargetEnd, EValue, BitScore,
}

// requiredColumns must be present in every column layout.
var requiredColumns = []string{QuerySeqID, TargetSeqID, PercentID, Length, EValue, BitScore}

// coverageColumns are needed to compute Hit.Coverage.
var coverageColumns = []string{QueryStart, QueryEnd, TargetStart, TargetEnd, QueryLen}

// ColumnError reports an unusable column layout. It is a configuration error:
// nothing can be parsed with the layout.
type ColumnError struct {
	Format string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("blasttab: bad column layout %q: %s", e.Format, e.Reason)
}

// Columns maps column names to their positions in a tabular record.  It is
// immutable once built, and safe for concurrent use.
type Columns struct {
	fmtType int
	names   []string
	index   map[string]int
	// minFields is one past the largest position of a column the parser reads.
	minFields int
}

// ParseFormat builds a Columns from a BLAST+ "-outfmt" specifier, e.g.
// "6 qseqid sseqid pident length evalue bitscore". The leading format number
// may be omitted, in which case 6 is assumed. "std" expands to the twelve
// standard columns. Only the tabular formats 6 and 7 are accepted.
func ParseFormat(spec string) (*Columns, error) {
	tokens := strings.Fields(spec)
	if len(tokens) == 0 {
		return nil, &ColumnError{spec, "empty format"}
	}
	fmtType := 6
	if n, err := strconv.Atoi(tokens[0]); err == nil {
		if n != 6 && n != 7 {
			return nil, &ColumnError{spec, fmt.Sprintf("output format %d is not tabular (want 6 or 7)", n)}
		}
		fmtType = n
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		// A bare "6" means the standard columns.
		tokens = []string{"std"}
	}
	var names []string
	for _, tok := range tokens {
		if tok == "std" {
			names = append(names, stdColumns...)
			continue
		}
		names = append(names, tok)
	}
	c, err := newColumns(names)
	if err != nil {
		return nil, &ColumnError{spec, err.Error()}
	}
	c.fmtType = fmtType
	return c, nil
}

// MustParseFormat is ParseFormat that panics on error. For use with
// constants.
func MustParseFormat(spec string) *Columns {
	c, err := ParseFormat(spec)
	if err != nil {
		panic(err)
	}
	return c
}

// NewColumns builds a Columns from an explicit list of names, in the order
// they appear in each record.
func NewColumns(names ...string) (*Columns, error) {
	c, err := newColumns(names)
	if err != nil {
		return nil, &ColumnError{strings.Join(names, " "), err.Error()}
	}
	return c, nil
}

func newColumns(names []string) (*Columns, error) {
	c := &Columns{
		fmtType: 6,
		names:   append([]string(nil), names...),
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, ok := c.index[name]; ok {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		c.index[name] = i
	}
	for _, name := range requiredColumns {
		i, ok := c.index[name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		if i+1 > c.minFields {
			c.minFields = i + 1
		}
	}
	return c, nil
}

// Names returns the column names in record order.
func (c *Columns) Names() []string { return append([]string(nil), c.names...) }

// Index returns the position of the named column, or -1.
func (c *Columns) Index(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

// HasCoverage is true if records carry the columns needed by Hit.Coverage.
func (c *Columns) HasCoverage() bool {
	for _, name := range coverageColumns {
		if _, ok := c.index[name]; !ok {
			return false
		}
	}
	return true
}

// MinFields is the number of fields a record must have at least.
func (c *Columns) MinFields() int { return c.minFields }

// Format renders the layout as a BLAST+ "-outfmt" value.
func (c *Columns) Format() string {
	return strconv.Itoa(c.fmtType) + " " + strings.Join(c.names, " ")
}

func (c *Columns) String() string { return c.Format() }
