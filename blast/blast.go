// Package blast runs the NCBI BLAST+ command line tools: makeblastdb to index
// a FASTA file, and blastn or blastp to search one sequence set against a
// database, writing tabular output that encoding/blasttab can read.
package blast

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/rbh/encoding/blasttab"
	"github.com/grailbio/rbh/encoding/fasta"
	"v.io/x/lib/lookpath"
)

// Names of the BLAST+ executables.
const (
	MakeDBCmd  = "makeblastdb"
	BlastNCmd  = "blastn"
	BlastPCmd  = "blastp"
	maxErrTail = 2048
)

// Opts configures a Runner.
type Opts struct {
	// BinDir is the directory holding the BLAST+ executables. If empty, they are
	// looked up in $PATH.
	BinDir string
	// Threads is passed as -num_threads to blastn and blastp.
	Threads int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	BinDir:  "", // -blast-bin-dir
	Threads: 1,  // -threads
}

// Runner invokes BLAST+ executables. Thread safe.
type Runner struct {
	opts Opts
	env  map[string]string
}

// NewRunner creates a Runner. It does not check that the executables exist;
// see Check.
func NewRunner(opts Opts) *Runner {
	env := map[string]string{"PATH": os.Getenv("PATH")}
	if opts.BinDir != "" {
		env["PATH"] = opts.BinDir
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return &Runner{opts: opts, env: env}
}

// SearchCmd returns the search executable for sequences of the given alphabet.
func SearchCmd(a fasta.Alphabet) (string, error) {
	switch a {
	case fasta.Nucleotide:
		return BlastNCmd, nil
	case fasta.Protein:
		return BlastPCmd, nil
	}
	return "", errors.E(errors.Invalid, "blast: no search program for alphabet", a.String())
}

// Check verifies that the executables needed for the given alphabets can be
// found, so that a run fails before doing any work.
func (r *Runner) Check(alphabets ...fasta.Alphabet) error {
	if _, err := r.look(MakeDBCmd); err != nil {
		return err
	}
	for _, a := range alphabets {
		name, err := SearchCmd(a)
		if err != nil {
			return err
		}
		if _, err := r.look(name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) look(name string) (string, error) {
	path, err := lookpath.Look(r.env, name)
	if err != nil {
		return "", errors.E(errors.NotExist, err, "blast: cannot find", name, "in", r.env["PATH"])
	}
	return path, nil
}

// MakeDB indexes fastaPath into a BLAST database at dbPath (a path prefix;
// makeblastdb adds several extensions).
func (r *Runner) MakeDB(ctx context.Context, fastaPath, dbPath string, a fasta.Alphabet) error {
	return r.run(ctx, MakeDBCmd, makeDBArgs(fastaPath, dbPath, a))
}

// Search runs blastn or blastp, depending on the database alphabet, with
// queryPath against dbPath, and writes tabular output laid out as cols to
// outPath.
func (r *Runner) Search(ctx context.Context, queryPath, dbPath, outPath string, a fasta.Alphabet, cols *blasttab.Columns) error {
	name, err := SearchCmd(a)
	if err != nil {
		return err
	}
	return r.run(ctx, name, searchArgs(queryPath, dbPath, outPath, cols, r.opts.Threads))
}

func makeDBArgs(fastaPath, dbPath string, a fasta.Alphabet) []string {
	return []string{"-in", fastaPath, "-dbtype", a.String(), "-out", dbPath}
}

func searchArgs(queryPath, dbPath, outPath string, cols *blasttab.Columns, threads int) []string {
	return []string{
		"-query", queryPath,
		"-db", dbPath,
		"-outfmt", cols.Format(),
		"-out", outPath,
		"-num_threads", strconv.Itoa(threads),
	}
}

func (r *Runner) run(ctx context.Context, name string, args []string) error {
	path, err := r.look(name)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	start := time.Now()
	log.Printf("running %s %s", filepath.Base(path), strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.E(errors.Canceled, ctx.Err(), name)
		}
		return errors.E(err, name, "failed:", tail(output.String()))
	}
	log.Printf("%s finished in %v", name, time.Since(start))
	if output.Len() > 0 {
		log.Debug.Printf("%s output: %s", name, tail(output.String()))
	}
	return nil
}

// tail returns the end of a possibly long tool output.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrTail {
		s = "..." + s[len(s)-maxErrTail:]
	}
	return s
}
