package seqio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPlainFile(t *testing.T) {
	want := []byte(">a\nACGT\n")
	path := filepath.Join(t.TempDir(), "seqs.fasta")
	require.NoError(t, os.WriteFile(path, want, 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck // test cleanup

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpenGzip(t *testing.T) {
	want := []byte("@r1\nACGT\n+\n!!!!\n")
	path := filepath.Join(t.TempDir(), "reads.fastq.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write(want)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, r.Close())
}

func TestOpenZstd(t *testing.T) {
	want := []byte("@r1\nACGT\n+\n!!!!\n")
	path := filepath.Join(t.TempDir(), "reads.fastq.zst")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write(want)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, r.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.fa"))
	assert.Error(t, err)
}
