// fxcat reads FASTA/FASTQ files (format auto-detected, gzip/zstd inputs
// supported), converting, re-emitting or counting records.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vertti/seqio"
	"github.com/vertti/seqio/fasta"
	"github.com/vertti/seqio/fastq"
	"github.com/vertti/seqio/fastx"
	"github.com/vertti/seqio/parallel"
)

var version = "dev"

const (
	exitSuccess = 0
	exitError   = 1
)

type config struct {
	inputFile  string
	outputFile string
	toFasta    bool
	wrap       int
	countOnly  bool
	workers    int
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, done := parseFlags()
	if done {
		return exitSuccess
	}

	input, err := seqio.Open(cfg.inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	defer input.Close() //nolint:errcheck // read-only input

	output, cleanup, err := openOutput(cfg.outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	defer cleanup()

	if err := execute(cfg, input, output); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}

	return exitSuccess
}

func parseFlags() (config, bool) {
	var cfg config
	var showVersion, showHelp bool

	flag.StringVar(&cfg.inputFile, "i", "", "input file (default: stdin)")
	flag.StringVar(&cfg.outputFile, "o", "", "output file (default: stdout)")
	flag.BoolVar(&cfg.toFasta, "fasta", false, "write FASTA output (drops FASTQ qualities)")
	flag.IntVar(&cfg.wrap, "wrap", 0, "wrap FASTA sequence lines at this width (0: no wrapping)")
	flag.BoolVar(&cfg.countOnly, "count", false, "only count records and bases")
	flag.IntVar(&cfg.workers, "w", 1, "worker goroutines for counting (0: NumCPU)")
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
	flag.BoolVar(&showHelp, "h", false, "show help")

	flag.Usage = usage
	flag.Parse()

	if showHelp {
		flag.Usage()
		return cfg, true
	}

	if showVersion {
		fmt.Printf("fxcat version %s\n", version)
		return cfg, true
	}

	// Handle positional arguments
	args := flag.Args()
	if len(args) > 0 && cfg.inputFile == "" {
		cfg.inputFile = args[0]
	}
	if len(args) > 1 && cfg.outputFile == "" {
		cfg.outputFile = args[1]
	}

	return cfg, false
}

func usage() {
	fmt.Fprintf(os.Stderr, `fxcat - FASTA/FASTQ cat, convert and count tool

Usage:
  fxcat [options] [input.(fa|fq)[.gz|.zst]] [output]

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  fxcat reads.fq                       Re-emit FASTQ in canonical form
  fxcat -fasta reads.fq.gz reads.fa    Convert gzip FASTQ to FASTA
  fxcat -fasta -wrap 60 genome.fa      Re-wrap FASTA at 60 columns
  fxcat -count -w 0 reads.fq.zst       Count records/bases in parallel
`)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		bw := bufio.NewWriterSize(os.Stdout, 1<<20)
		return bw, func() { _ = bw.Flush() }, nil
	}

	f, err := os.Create(path) //nolint:gosec // CLI tool needs to create user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	return bw, func() { _ = bw.Flush(); _ = f.Close() }, nil
}

func execute(cfg config, input io.Reader, output io.Writer) error {
	rdr, err := fastx.New(input)
	if err != nil {
		return err
	}

	if cfg.countOnly {
		records, bases, err := countRecords(rdr, cfg.workers)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(output, "%d records\t%d bases\n", records, bases)
		return err
	}

	return convert(rdr, output, cfg)
}

// convert streams records to the output, optionally converting to FASTA
// with wrapped sequence lines.
func convert(rdr *fastx.Reader, w io.Writer, cfg config) error {
	var scratch []byte
	for {
		rec, err := rdr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case cfg.toFasta && cfg.wrap > 0:
			err = fasta.WriteWrap(w, rec.IDBytes(), rec.DescBytes(), rec.FullSeq(&scratch), cfg.wrap)
		case cfg.toFasta:
			err = fasta.Write(w, rec.Head(), rec.FullSeq(&scratch))
		default:
			err = rec.Write(w)
		}
		if err != nil {
			return err
		}
	}
}

type counts struct {
	records uint64
	bases   uint64
}

// countRecords tallies records and sequence bases, fanning record sets
// out to workers when more than one is requested.
func countRecords(rdr *fastx.Reader, workers int) (uint64, uint64, error) {
	if workers == 1 {
		return countSerial(rdr)
	}

	var total counts
	ctx := context.Background()
	switch rdr.Format() {
	case fastx.FormatFASTA:
		err := parallel.Run(ctx, rdr.FASTA(), workers, 0,
			func(set *fasta.RecordSet) (counts, error) {
				var c counts
				for rec := range set.Records() {
					c.records++
					for line := range rec.SeqLines() {
						c.bases += uint64(len(line))
					}
				}
				return c, nil
			},
			func(_ *fasta.RecordSet, c counts) error {
				total.records += c.records
				total.bases += c.bases
				return nil
			})
		return total.records, total.bases, err
	case fastx.FormatFASTQ:
		err := parallel.Run(ctx, rdr.FASTQ(), workers, 0,
			func(set *fastq.RecordSet) (counts, error) {
				var c counts
				for rec := range set.Records() {
					c.records++
					c.bases += uint64(len(rec.Seq()))
				}
				return c, nil
			},
			func(_ *fastq.RecordSet, c counts) error {
				total.records += c.records
				total.bases += c.bases
				return nil
			})
		return total.records, total.bases, err
	}
	return 0, 0, nil
}

func countSerial(rdr *fastx.Reader) (uint64, uint64, error) {
	var records, bases uint64
	var scratch []byte
	for {
		rec, err := rdr.Next()
		if errors.Is(err, io.EOF) {
			return records, bases, nil
		}
		if err != nil {
			return 0, 0, err
		}
		records++
		bases += uint64(len(rec.FullSeq(&scratch)))
	}
}
