package fasta

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Alphabet is the residue alphabet of a sequence set.
type Alphabet int

const (
	// Unknown is the zero Alphabet.
	Unknown Alphabet = iota
	// Nucleotide sequences (DNA or RNA, IUPAC codes allowed).
	Nucleotide
	// Protein sequences.
	Protein
)

// DefaultDetectLines is the number of sequence lines DetectAlphabet inspects
// by default.
const DefaultDetectLines = 1000

// String returns the BLAST+ "-dbtype" spelling, "nucl" or "prot".
func (a Alphabet) String() string {
	switch a {
	case Nucleotide:
		return "nucl"
	case Protein:
		return "prot"
	}
	return "unknown"
}

// ParseAlphabet parses "nucl" or "prot".
func ParseAlphabet(s string) (Alphabet, error) {
	switch s {
	case "nucl":
		return Nucleotide, nil
	case "prot":
		return Protein, nil
	}
	return Unknown, errors.Errorf("unknown alphabet %q, want nucl or prot", s)
}

// nucleotideCodes[c] is true for IUPAC nucleotide codes, in both cases, and
// for the gap and stop characters.
var nucleotideCodes [256]bool

func init() {
	for _, c := range "ACGTUNRYKMSWBDHV" {
		nucleotideCodes[c] = true
		nucleotideCodes[c+'a'-'A'] = true
	}
	for _, c := range "-*." {
		nucleotideCodes[c] = true
	}
}

// DetectAlphabet guesses the alphabet of a FASTA stream by looking at up to
// maxLines sequence lines (headers excluded). The stream is Protein as soon as
// one residue falls outside the IUPAC nucleotide codes, Nucleotide otherwise.
// An input with no sequence lines is an error.
func DetectAlphabet(r io.Reader, maxLines int) (Alphabet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	n := 0
	for scanner.Scan() && n < maxLines {
		line := scanner.Bytes()
		if len(line) == 0 || line[0] == '>' {
			continue
		}
		for _, c := range line {
			if c == '\r' || c == ' ' || c == '\t' {
				continue
			}
			if !nucleotideCodes[c] {
				return Protein, nil
			}
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return Unknown, errors.Wrap(err, "couldn't read FASTA data")
	}
	if n == 0 {
		return Unknown, errors.Errorf("no sequence data found")
	}
	return Nucleotide, nil
}
