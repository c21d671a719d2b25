package fastq

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/seqio"
)

func TestMultilineRecord(t *testing.T) {
	input := "@r1\nACGT\nAC\n+\nIIII\nII\n"
	rdr := NewMultiline(strings.NewReader(input))

	rec, err := rdr.Next()
	require.NoError(t, err)

	assert.Equal(t, 2, rec.NumSeqLines())
	assert.Equal(t, 2, rec.NumQualLines())

	var scratch []byte
	assert.Equal(t, []byte("ACGTAC"), rec.FullSeq(&scratch))
	var qscratch []byte
	assert.Equal(t, []byte("IIIIII"), rec.FullQual(&qscratch))

	_, err = rdr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMultilineQualStartingWithAt(t *testing.T) {
	// '@' at a quality line start is data, not a record marker
	input := "@r1\nACGT\nAC\n+\n@III\nII\n@r2\nAC\n+\n!!\n"
	rdr := NewMultiline(strings.NewReader(input))

	rec, err := rdr.Next()
	require.NoError(t, err)
	var scratch []byte
	assert.Equal(t, []byte("@IIIII"), rec.FullQual(&scratch))

	rec, err = rdr.Next()
	require.NoError(t, err)
	id, err := rec.ID()
	require.NoError(t, err)
	assert.Equal(t, "r2", id)

	_, err = rdr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMultilineQualSplitUnevenly(t *testing.T) {
	input := "@r1\nACGTACGT\n+\nIII\nIIII\nI\n"
	rdr := NewMultiline(strings.NewReader(input))

	rec, err := rdr.Next()
	require.NoError(t, err)
	var scratch []byte
	assert.Equal(t, []byte("IIIIIIII"), rec.FullQual(&scratch))
}

func TestMultilineQualTooLong(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nACGT\n+\nIIIII\n"))
	_, err := rdr.Next()
	require.Error(t, err)
	assert.True(t, seqio.IsKind(err, seqio.ErrUnequalLengths))
}

func TestMultilineQualTooShortAtEOF(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nACGT\n+\nII\n"))
	_, err := rdr.Next()
	require.Error(t, err)
	assert.True(t, seqio.IsKind(err, seqio.ErrUnexpectedEnd))

	var se *seqio.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, seqio.Position{Byte: 11, Line: 4, Record: 0}, se.Pos)
}

func TestMultilineTruncatedBeforeSeparator(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nAC\nGT"))
	_, err := rdr.Next()
	require.Error(t, err)
	assert.True(t, seqio.IsKind(err, seqio.ErrUnexpectedEnd))

	// position points at the start of the line the input broke off in
	var se *seqio.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, seqio.Position{Byte: 7, Line: 3, Record: 0}, se.Pos)
}

func TestMultilineUnterminatedFinalQualLine(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nACGT\n+\nII\nII"))
	rec, err := rdr.Next()
	require.NoError(t, err)
	var scratch []byte
	assert.Equal(t, []byte("IIII"), rec.FullQual(&scratch))

	_, err = rdr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMultilineSingleLineInputStillParses(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nACGT\n+\n!!!!\n@r2\nA\n+\n!\n"))

	var ids []string
	for rec, err := range rdr.Records() {
		require.NoError(t, err)
		id, err := rec.ID()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"r1", "r2"}, ids)
}

func TestMultilineCRLF(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\r\nAC\r\nGT\r\n+\r\nII\r\nII\r\n"))
	rec, err := rdr.Next()
	require.NoError(t, err)
	var scratch []byte
	assert.Equal(t, []byte("ACGT"), rec.FullSeq(&scratch))
	assert.Equal(t, []byte("IIII"), rec.FullQual(&scratch))
}

func TestMultilinePositionTracking(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nAC\nGT\n+\nII\nII\n@r2\nA\n+\n!\n"))

	_, err := rdr.Next()
	require.NoError(t, err)
	assert.Equal(t, seqio.Position{Byte: 0, Line: 1, Record: 0}, rdr.Position())

	_, err = rdr.Next()
	require.NoError(t, err)
	assert.Equal(t, seqio.Position{Byte: 18, Line: 7, Record: 1}, rdr.Position())
}

func TestMultilineRecordSet(t *testing.T) {
	rdr := NewMultiline(strings.NewReader("@r1\nAC\nGT\n+\nII\nII\n@r2\nA\n+\n!\n"))

	var set RecordSet
	ok, err := rdr.ReadRecordSet(&set)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, set.Len())

	var scratch []byte
	var seqs []string
	for rec := range set.Records() {
		seqs = append(seqs, string(rec.FullSeq(&scratch)))
	}
	assert.Equal(t, []string{"ACGT", "A"}, seqs)
}
