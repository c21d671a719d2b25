package parallel

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/seqio/fasta"
	"github.com/vertti/seqio/fastq"
)

func fastqInput(n int) *bytes.Reader {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.WriteString("@r\nACGTACGT\n+\nIIIIIIII\n")
	}
	return bytes.NewReader(buf.Bytes())
}

func TestOrderPreserved(t *testing.T) {
	rdr := fasta.New(strings.NewReader(">a\nAC\n>b\nGT\n"))

	var order []uint64
	err := Run(context.Background(), rdr, 4, 2,
		func(set *fasta.RecordSet) (uint64, error) {
			return set.StartPosition().Record, nil
		},
		func(_ *fasta.RecordSet, first uint64) error {
			order = append(order, first)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, order, "both records fit one window")
}

func TestOrderPreservedManyBatches(t *testing.T) {
	// a small reader buffer forces many record sets through the pipeline
	rdr := fastq.NewWithCapacity(fastqInput(500), 64)

	var starts []uint64
	var total int
	err := Run(context.Background(), rdr, 4, 2,
		func(set *fastq.RecordSet) (int, error) {
			return set.Len(), nil
		},
		func(set *fastq.RecordSet, n int) error {
			starts = append(starts, set.StartPosition().Record)
			total += n
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 500, total)
	require.Greater(t, len(starts), 1, "expected several batches")
	assert.True(t, sortedAscending(starts), "sink must observe batches in input order: %v", starts)
}

func sortedAscending(v []uint64) bool {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return false
		}
	}
	return true
}

func TestWorkerErrorStopsPipeline(t *testing.T) {
	rdr := fastq.NewWithCapacity(fastqInput(200), 64)

	boom := errors.New("boom")
	err := Run(context.Background(), rdr, 4, 2,
		func(set *fastq.RecordSet) (int, error) {
			if set.StartPosition().Record >= 4 {
				return 0, boom
			}
			return set.Len(), nil
		},
		func(_ *fastq.RecordSet, _ int) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestSinkErrorStopsPipeline(t *testing.T) {
	rdr := fastq.NewWithCapacity(fastqInput(200), 64)

	boom := errors.New("sink boom")
	calls := 0
	err := Run(context.Background(), rdr, 4, 2,
		func(set *fastq.RecordSet) (int, error) { return set.Len(), nil },
		func(_ *fastq.RecordSet, _ int) error {
			calls++
			if calls == 2 {
				return boom
			}
			return nil
		})
	assert.ErrorIs(t, err, boom)
}

func TestReaderErrorPropagates(t *testing.T) {
	// record 3 is malformed
	input := "@r1\nAC\n+\n!!\n@r2\nAC\n+\n!!\n@r3\nACG\n+\n!!\n"
	rdr := fastq.NewWithCapacity(strings.NewReader(input), 16)

	err := Run(context.Background(), rdr, 2, 1,
		func(set *fastq.RecordSet) (int, error) { return set.Len(), nil },
		func(_ *fastq.RecordSet, _ int) error { return nil })
	assert.Error(t, err)
}

func TestCancellation(t *testing.T) {
	rdr := fastq.NewWithCapacity(fastqInput(500), 64)

	ctx, cancel := context.WithCancel(context.Background())
	batches := 0
	err := Run(ctx, rdr, 2, 1,
		func(set *fastq.RecordSet) (int, error) { return set.Len(), nil },
		func(_ *fastq.RecordSet, _ int) error {
			batches++
			if batches == 2 {
				cancel()
			}
			return nil
		})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithPerWorkerState(t *testing.T) {
	rdr := fastq.NewWithCapacity(fastqInput(300), 64)

	var total int
	err := RunWith(context.Background(), rdr, 4, 2,
		func() func(*fastq.RecordSet) (int, error) {
			// per-worker scratch buffer, reused across sets
			var scratch []byte
			return func(set *fastq.RecordSet) (int, error) {
				bases := 0
				for rec := range set.Records() {
					bases += len(rec.FullSeq(&scratch))
				}
				return bases, nil
			}
		},
		func(_ *fastq.RecordSet, bases int) error {
			total += bases
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 300*8, total)
}

func TestNilSink(t *testing.T) {
	rdr := fasta.New(strings.NewReader(">a\nAC\n>b\nGT\n"))
	err := Run(context.Background(), rdr, 2, 1,
		func(set *fasta.RecordSet) (struct{}, error) { return struct{}{}, nil },
		nil)
	require.NoError(t, err)
}

func TestPerRecordCountersInOrder(t *testing.T) {
	// two records, four workers: the collector still sees them in input order
	rdr := fasta.NewWithCapacity(strings.NewReader(">a\nAC\n>b\nGT\n"), 8)

	var indices []uint64
	err := Run(context.Background(), rdr, 4, 2,
		func(set *fasta.RecordSet) ([]uint64, error) {
			var out []uint64
			base := set.StartPosition().Record
			for i := 0; i < set.Len(); i++ {
				out = append(out, base+uint64(i))
			}
			return out, nil
		},
		func(_ *fasta.RecordSet, out []uint64) error {
			indices = append(indices, out...)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, indices)
}
