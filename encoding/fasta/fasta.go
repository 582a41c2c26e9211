// Package fasta contains code for reading FASTA files and guessing the
// alphabet of their sequences. Briefly, FASTA files consist of a number of
// named sequences that may be interrupted by newlines. For example:
//
// >geneA_strainA
// ATGCGTACGT
// AGCTAG
// >geneB_strainA
// ATGCGTACGA
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>geneA hypothetical protein' becomes 'geneA'.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	bufferInitSize = 1024 * 1024 * 300 // 300 MB
)

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences. Only the names and lengths of the sequences are kept.
type Fasta interface {
	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

type fasta struct {
	lens     map[string]uint64
	seqNames []string
}

// New creates a new Fasta from the FASTA data of the given reader. Sequence
// names must be unique.
func New(r io.Reader) (Fasta, error) {
	f := &fasta{lens: make(map[string]uint64)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	var (
		seqName string
		seqLen  uint64
		started bool
	)
	flush := func() error {
		if _, ok := f.lens[seqName]; ok {
			return errors.Errorf("duplicate sequence name: %s", seqName)
		}
		f.lens[seqName] = seqLen
		f.seqNames = append(f.seqNames, seqName)
		seqLen = 0
		return nil
	}
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			if started { // We need to store the previous sequence first.
				if err := flush(); err != nil {
					return nil, err
				}
			}
			seqName = strings.Split(line[1:], " ")[0]
			if seqName == "" {
				return nil, errors.Errorf("malformed FASTA file: empty sequence name")
			}
			started = true
		} else {
			if !started {
				return nil, errors.Errorf("malformed FASTA file: sequence data before the first header")
			}
			seqLen += uint64(len(line))
		}
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if started {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seqName string) (uint64, error) {
	n, ok := f.lens[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return n, nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
