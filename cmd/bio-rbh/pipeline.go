package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/rbh/blast"
	"github.com/grailbio/rbh/encoding/blasttab"
	"github.com/grailbio/rbh/encoding/fasta"
	"github.com/grailbio/rbh/rbh"
)

// result is the outcome of one run or match invocation.
type result struct {
	pairs      []rbh.Pair
	stats      [2]rbh.Stats
	outputPath string
}

var compressedSuffixes = []string{".gz", ".zst", ".bz2"}

func isCompressed(path string) bool {
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// strainName derives the name of a strain from its FASTA path, e.g.
// "data/ecoli_k12.fa.gz" -> "ecoli_k12".
func strainName(path string) string {
	name := filepath.Base(path)
	for _, suffix := range compressedSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// openInput opens path for reading, decompressing it if its name has a known
// compression suffix. The returned closer must be called once.
func openInput(ctx context.Context, path string) (io.Reader, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "open", path)
	}
	r := io.Reader(in.Reader(ctx))
	if u := compress.NewReaderPath(r, path); u != nil {
		return u, func() error {
			e := errors.Once{}
			e.Set(u.Close())
			e.Set(in.Close(ctx))
			return e.Err()
		}, nil
	}
	return r, func() error { return in.Close(ctx) }, nil
}

func detectAlphabet(ctx context.Context, path string, maxLines int) (a fasta.Alphabet, err error) {
	r, closer, err := openInput(ctx, path)
	if err != nil {
		return fasta.Unknown, err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	if a, err = fasta.DetectAlphabet(r, maxLines); err != nil {
		return fasta.Unknown, errors.E(err, path)
	}
	return a, nil
}

// checkFasta loads a FASTA file to catch problems that makeblastdb reports
// poorly, such as duplicate sequence names, and logs its size.
func checkFasta(ctx context.Context, path string) (err error) {
	r, closer, err := openInput(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	fa, err := fasta.New(r)
	if err != nil {
		return errors.E(errors.Invalid, err, path)
	}
	if len(fa.SeqNames()) == 0 {
		return errors.E(errors.Invalid, path, "has no sequences")
	}
	var total uint64
	for _, name := range fa.SeqNames() {
		n, _ := fa.Len(name)
		total += n
	}
	log.Printf("%s: %d sequences, %d residues", path, len(fa.SeqNames()), total)
	return nil
}

// runPipeline builds BLAST databases for both strains, searches each strain
// against the other, and reports the reciprocal best hits. The BLAST outputs
// are kept in f.outputDir.
func runPipeline(ctx context.Context, aPath, bPath string, cols *blasttab.Columns, f *rbhFlags) (result, error) {
	start := time.Now()
	paths := [2]string{aPath, bPath}
	names := [2]string{strainName(aPath), strainName(bPath)}
	if names[0] == names[1] {
		return result{}, errors.E(errors.Invalid, "both strains are named", names[0])
	}
	for _, path := range paths {
		if isCompressed(path) {
			return result{}, errors.E(errors.Invalid, path, "is compressed, BLAST+ needs an uncompressed FASTA file")
		}
	}

	alphabet := fasta.Unknown
	if f.dbType != "" {
		a, err := fasta.ParseAlphabet(f.dbType)
		if err != nil {
			return result{}, errors.E(errors.Invalid, err)
		}
		alphabet = a
	}
	runner := blast.NewRunner(blast.Opts{BinDir: f.blastBinDir, Threads: f.threads})

	if err := traverse.Each(2, func(i int) error {
		return checkFasta(ctx, paths[i])
	}); err != nil {
		return result{}, err
	}
	if alphabet == fasta.Unknown {
		var detected [2]fasta.Alphabet
		if err := traverse.Each(2, func(i int) (err error) {
			detected[i], err = detectAlphabet(ctx, paths[i], fasta.DefaultDetectLines)
			return err
		}); err != nil {
			return result{}, err
		}
		if detected[0] != detected[1] {
			return result{}, errors.E(errors.Invalid, fmt.Sprintf("%s looks like %v but %s looks like %v; set -dbtype to search both as one type",
				aPath, detected[0], bPath, detected[1]))
		}
		alphabet = detected[0]
		log.Printf("detected sequence type: %v", alphabet)
	}
	if err := runner.Check(alphabet); err != nil {
		return result{}, err
	}
	if err := os.MkdirAll(f.outputDir, 0777); err != nil {
		return result{}, errors.E(err, "create output directory", f.outputDir)
	}

	var dbs, hitPaths [2]string
	for i := range paths {
		dbs[i] = filepath.Join(f.outputDir, names[i]+"_db")
		hitPaths[i] = filepath.Join(f.outputDir, names[i]+"_vs_"+names[1-i]+".blast")
	}
	if err := traverse.Each(2, func(i int) error {
		return runner.MakeDB(ctx, paths[i], dbs[i], alphabet)
	}); err != nil {
		return result{}, err
	}
	// Forward: A queried against B's database. Reverse: B against A's.
	if err := traverse.Each(2, func(i int) error {
		return runner.Search(ctx, paths[i], dbs[1-i], hitPaths[i], alphabet, cols)
	}); err != nil {
		return result{}, err
	}

	outputPath := f.output
	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(f.outputDir, outputPath)
	}
	res, err := matchHitFiles(ctx, hitPaths, names, cols, f.opts, outputPath, f.detail)
	if err != nil {
		return result{}, err
	}
	log.Printf("pipeline finished in %v", time.Since(start))
	return res, nil
}

// matchFiles implements the match subcommand.
func matchFiles(ctx context.Context, aPath, bPath string, cols *blasttab.Columns, f *rbhFlags) (result, error) {
	names, err := parseNames(f.names)
	if err != nil {
		return result{}, err
	}
	paths := [2]string{aPath, bPath}
	if !f.rio {
		return matchHitFiles(ctx, paths, names, cols, f.opts, f.output, f.detail)
	}
	var (
		best [2]*rbh.BestHits
		opts [2]rbh.Opts
	)
	if err := traverse.Each(2, func(i int) (err error) {
		best[i], opts[i], err = readBestHits(ctx, paths[i])
		return err
	}); err != nil {
		return result{}, err
	}
	// Both directions must be filtered the same way.
	if opts[0].Thresholds != opts[1].Thresholds {
		return result{}, errors.E(errors.Invalid, fmt.Sprintf("%s and %s were selected with different thresholds: %+v vs %+v",
			aPath, bPath, opts[0].Thresholds, opts[1].Thresholds))
	}
	return writeResult(ctx, best, [2]rbh.Stats{}, names, f.output, f.detail)
}

func parseNames(s string) ([2]string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return [2]string{}, errors.E(errors.Invalid, "-names must be two comma-separated names, got", s)
	}
	return [2]string{parts[0], parts[1]}, nil
}

// matchHitFiles reads the forward (paths[0]) and reverse (paths[1]) hit files
// in parallel and writes their reciprocal best hits to outputPath.
func matchHitFiles(ctx context.Context, paths, names [2]string, cols *blasttab.Columns, opts rbh.Opts, outputPath string, detail bool) (result, error) {
	var (
		best  [2]*rbh.BestHits
		stats [2]rbh.Stats
	)
	if err := traverse.Each(2, func(i int) (err error) {
		best[i], stats[i], err = rbh.ReadBestHitsFile(ctx, paths[i], cols, opts)
		return err
	}); err != nil {
		return result{}, err
	}
	return writeResult(ctx, best, stats, names, outputPath, detail)
}

func writeResult(ctx context.Context, best [2]*rbh.BestHits, stats [2]rbh.Stats, names [2]string, outputPath string, detail bool) (result, error) {
	pairs := rbh.Match(best[0], best[1])
	if err := writePairs(ctx, outputPath, names, pairs, detail); err != nil {
		return result{}, err
	}
	total := stats[0].Merge(stats[1])
	log.Printf("%s vs %s: %d reciprocal best hits (%d and %d best hits, %d of %d records malformed), fingerprint %016x",
		names[0], names[1], len(pairs), best[0].Len(), best[1].Len(), total.Malformed, total.Records, fingerprint(pairs))
	return result{pairs: pairs, stats: stats, outputPath: outputPath}, nil
}
