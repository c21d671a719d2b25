package seqio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Open opens a sequence file for reading, transparently decompressing
// gzip (.gz) and zstd (.zst) inputs based on the file extension. The
// returned reader delivers the raw FASTA/FASTQ byte stream expected by
// the parsers. "-" or the empty path means stdin (never decompressed).
func Open(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot open gzip input: %w", err)
		}
		return &decompressedFile{r: gz, close: func() error {
			gzErr := gz.Close()
			if err := f.Close(); err != nil {
				return err
			}
			return gzErr
		}}, nil
	case strings.HasSuffix(strings.ToLower(path), ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot open zstd input: %w", err)
		}
		return &decompressedFile{r: zr.IOReadCloser(), close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	}
	return f, nil
}

type decompressedFile struct {
	r     io.Reader
	close func() error
}

func (d *decompressedFile) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decompressedFile) Close() error               { return d.close() }
