package main

// bio-rbh calls orthologs between two strains as reciprocal best hits (RBH):
// gene a of strain A and gene b of strain B are reported as a pair iff b is
// a's best BLAST hit in B and a is b's best BLAST hit in A.
//
// Example 1: run the whole pipeline, BLAST+ included.
//
//    bio-rbh run -output-dir=out -min-coverage=0.8 strainA.fa strainB.fa
//
// Example 2: match two existing tabular hit files.
//
//    bio-rbh match -outfmt="6 std" a_vs_b.tsv b_vs_a.tsv
//
// Example 3: select the best hits of each direction separately, then match.
//
//    bio-rbh besthits a_vs_b.tsv a_vs_b.rio
//    bio-rbh besthits b_vs_a.tsv b_vs_a.rio
//    bio-rbh match -rio a_vs_b.rio b_vs_a.rio

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/rbh/blast"
	"github.com/grailbio/rbh/encoding/blasttab"
	"github.com/grailbio/rbh/encoding/fasta"
	"github.com/grailbio/rbh/rbh"
	"v.io/x/lib/cmdline"
)

const defaultOutput = "reciprocal_best_hits.tsv"

// Collection of options set via cmdline flags.
type rbhFlags struct {
	configPath string
	outfmt     string
	detail     bool
	output     string

	opts rbh.Opts

	// run only.
	outputDir   string
	dbType      string
	blastBinDir string
	threads     int

	// match only.
	rio   bool
	names string
}

// addThresholdFlags registers the flags shared by all subcommands that select
// best hits.
func addThresholdFlags(fs *flag.FlagSet, f *rbhFlags) {
	f.opts = rbh.DefaultOpts
	fs.StringVar(&f.configPath, "config", "", `YAML, JSON or TOML file with flag values.
Keys are flag names, e.g. "min-identity: 95". Flags set on the command line take precedence.`)
	fs.Float64Var(&f.opts.MinIdentity, "min-identity", rbh.DefaultOpts.MinIdentity, "Minimum percent identity of a hit, in [0,100].")
	fs.Float64Var(&f.opts.MaxEValue, "max-evalue", rbh.DefaultOpts.MaxEValue, "Maximum e-value of a hit.")
	fs.Float64Var(&f.opts.MinCoverage, "min-coverage", rbh.DefaultOpts.MinCoverage,
		`Minimum fraction of the query covered by the alignment, in [0,1].
0 disables the check. Other values need the qstart, qend, sstart, send and qlen columns.`)
	fs.StringVar(&f.outfmt, "outfmt", blasttab.DefaultFormat, "BLAST -outfmt specifier describing the hit columns.")
	fs.BoolVar(&f.opts.Strict, "strict", rbh.DefaultOpts.Strict, "Abort on the first malformed hit record instead of skipping it.")
}

func addOutputFlags(fs *flag.FlagSet, f *rbhFlags) {
	fs.StringVar(&f.output, "output", defaultOutput, "Output TSV path. A .gz suffix compresses the output.")
	fs.BoolVar(&f.detail, "detail", false, "Add identity, coverage, evalue and bitscore of the forward hit to the output.")
}

// setup applies the config file and validates the flags. It must be called
// before any IO.
func (f *rbhFlags) setup(fs *flag.FlagSet) (*blasttab.Columns, error) {
	if f.configPath != "" {
		if err := applyConfig(fs, f.configPath); err != nil {
			return nil, err
		}
	}
	if err := f.opts.Validate(); err != nil {
		return nil, err
	}
	cols, err := blasttab.ParseFormat(f.outfmt)
	if err != nil {
		return nil, err
	}
	if err := f.opts.ValidateColumns(cols); err != nil {
		return nil, err
	}
	return cols, nil
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "run",
		Short:    "Run BLAST+ both ways between two strains and report reciprocal best hits",
		ArgsName: "strainA.fa strainB.fa",
	}
	f := &rbhFlags{}
	addThresholdFlags(&cmd.Flags, f)
	addOutputFlags(&cmd.Flags, f)
	cmd.Flags.StringVar(&f.outputDir, "output-dir", ".", `Directory for the BLAST databases, the hit files and,
if -output is a relative path, the output. Created if missing.`)
	cmd.Flags.StringVar(&f.dbType, "dbtype", "", `Sequence alphabet, "nucl" or "prot". By default it is detected from strainA.fa.`)
	cmd.Flags.StringVar(&f.blastBinDir, "blast-bin-dir", blast.DefaultOpts.BinDir, "Directory holding makeblastdb, blastn and blastp. By default they are looked up in $PATH.")
	cmd.Flags.IntVar(&f.threads, "threads", blast.DefaultOpts.Threads, "Threads per BLAST search.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return env.UsageErrorf("run takes two FASTA paths, but got %v", argv)
		}
		cols, err := f.setup(&cmd.Flags)
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		result, err := runPipeline(ctx, argv[0], argv[1], cols, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "%d reciprocal best hits written to %s\n", len(result.pairs), result.outputPath)
		return nil
	})
	return cmd
}

func newCmdMatch() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "match",
		Short:    "Report reciprocal best hits from two tabular BLAST hit files",
		ArgsName: "a_vs_b b_vs_a",
		Long: `
The first file holds the hits of strain A's sequences against strain B, the
second those of B against A. Files ending in .gz or .zst are decompressed.
With -rio, both arguments are best-hit files written by "bio-rbh besthits".`,
	}
	f := &rbhFlags{}
	addThresholdFlags(&cmd.Flags, f)
	addOutputFlags(&cmd.Flags, f)
	cmd.Flags.StringVar(&f.names, "names", "strainA,strainB", "Comma-separated names of the two strains, used in the output header.")
	cmd.Flags.BoolVar(&f.rio, "rio", false, "Read best hits dumped by the besthits subcommand instead of hit tables. Threshold flags are ignored; both files must have been written with the same thresholds.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return env.UsageErrorf("match takes two hit file paths, but got %v", argv)
		}
		cols, err := f.setup(&cmd.Flags)
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		result, err := matchFiles(ctx, argv[0], argv[1], cols, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "%d reciprocal best hits written to %s\n", len(result.pairs), result.outputPath)
		return nil
	})
	return cmd
}

func newCmdBestHits() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "besthits",
		Short:    "Select the best hit of every query of one hit file and save them for match -rio",
		ArgsName: "hits out.rio",
	}
	f := &rbhFlags{}
	addThresholdFlags(&cmd.Flags, f)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return env.UsageErrorf("besthits takes an input and an output path, but got %v", argv)
		}
		cols, err := f.setup(&cmd.Flags)
		if err != nil {
			return err
		}
		ctx := vcontext.Background()
		best, _, err := rbh.ReadBestHitsFile(ctx, argv[0], cols, f.opts)
		if err != nil {
			return err
		}
		if err := writeBestHits(ctx, argv[1], argv[0], best, f.opts); err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "%d best hits written to %s\n", best.Len(), argv[1])
		return nil
	})
	return cmd
}

func newCmdDBType() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "dbtype",
		Short:    `Print the alphabet of a FASTA file, "nucl" or "prot"`,
		ArgsName: "path",
	}
	maxLines := cmd.Flags.Int("lines", fasta.DefaultDetectLines, "Number of lines to inspect.")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("dbtype takes one pathname argument, but got %v", argv)
		}
		a, err := detectAlphabet(vcontext.Background(), argv[0], *maxLines)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Stdout, a)
		return nil
	})
	return cmd
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-rbh",
		Short:    "Ortholog calling by reciprocal best BLAST hits",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdRun(),
			newCmdMatch(),
			newCmdBestHits(),
			newCmdDBType(),
		},
	}
}

func main() {
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	env := cmdline.EnvFromOS()
	err := cmdline.ParseAndRun(newCmdRoot(), env, os.Args[1:])
	shutdown()
	os.Exit(cmdline.ExitCode(err, env.Stderr))
}
