// Package fasta provides fast, zero-copy FASTA parsing.
//
// Reader.Next yields records that borrow from the internal buffer; a record
// is valid until the next call that advances the reader. RecordSet batches
// copy records out of the buffer and are safe to move across goroutines.
package fasta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/vertti/seqio"
	"github.com/vertti/seqio/internal/core"
)

type readerState int

const (
	stateFresh    readerState = iota // before the first record
	stateScanning                    // a scan is in progress
	stateHave                        // bp holds a complete record
	stateDone                        // clean end of input
)

// bufferPosition describes one record's boundaries inside the buffer.
// All offsets are indices into the reader's buffer (or a record set's
// copied slab).
type bufferPosition struct {
	start     int   // index of '>'
	headEnd   int   // index of the header-terminating '\n' (buffer end at EOF)
	seqStart  int   // first byte of sequence data
	seqBreaks []int // '\n' indices within [seqStart, seqEnd)
	seqEnd    int   // exclusive end of sequence bytes
	next      int   // start of the next record, exclusive end of this one
}

// Reader parses FASTA records from an io.Reader.
type Reader struct {
	src    io.Reader
	closer io.Closer
	buf    *core.Buffer
	policy seqio.BufPolicy

	bp         bufferPosition
	headerDone bool
	scanned    int // offset up to which the newline search advanced
	lineStart  int // start of the current (possibly partial) line

	pos   seqio.Position
	state readerState
	err   error
	rec   RefRecord
}

// New returns a Reader with the default buffer capacity and growth policy.
func New(r io.Reader) *Reader {
	return NewWithPolicy(r, core.DefaultCapacity, seqio.StdPolicy{})
}

// NewWithCapacity returns a Reader with the given initial buffer capacity.
func NewWithCapacity(r io.Reader, capacity int) *Reader {
	return NewWithPolicy(r, capacity, seqio.StdPolicy{})
}

// NewWithPolicy returns a Reader with the given initial buffer capacity and
// growth policy.
func NewWithPolicy(r io.Reader, capacity int, policy seqio.BufPolicy) *Reader {
	return &Reader{
		src:    r,
		buf:    core.NewBuffer(r, capacity),
		policy: policy,
		pos:    seqio.Position{Line: 1},
	}
}

// NewFromPath opens path via seqio.Open (decompressing .gz/.zst inputs) and
// returns a Reader owning the file. Close releases it.
func NewFromPath(path string) (*Reader, error) {
	f, err := seqio.Open(path)
	if err != nil {
		return nil, err
	}
	rdr := New(f)
	rdr.closer = f
	return rdr, nil
}

// Close closes the underlying file if the Reader was built by NewFromPath.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next returns the next record as a view borrowing from the internal
// buffer. The view is invalidated by any subsequent call to Next,
// ReadRecordSet, ReadRecordSetExact or Seek. Returns io.EOF at clean end
// of input.
func (r *Reader) Next() (*RefRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	ok, err := r.nextComplete()
	if err != nil {
		return nil, r.fail(err)
	}
	if !ok {
		return nil, io.EOF
	}
	r.rec = RefRecord{buf: r.buf.Bytes(), pos: &r.bp}
	return &r.rec, nil
}

// Records iterates over owned copies of all remaining records. Iteration
// stops after yielding the first error, if any.
func (r *Reader) Records() iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			var owned Record
			rec.CloneInto(&owned)
			if !yield(&owned, nil) {
				return
			}
		}
	}
}

// Position returns the position at the start of the most recently yielded
// record, or the current read head if no record has been yielded yet.
func (r *Reader) Position() seqio.Position {
	return r.pos
}

// Seek repositions the reader. The underlying source must implement
// io.Seeker. The buffer is discarded and all scanner state is reset; the
// next record is expected to start exactly at p.Byte.
func (r *Reader) Seek(p seqio.Position) error {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return errors.New("fasta: underlying reader does not support seeking")
	}
	if _, err := s.Seek(int64(p.Byte), io.SeekStart); err != nil {
		return &seqio.Error{Kind: seqio.ErrIo, Pos: p, Msg: "fasta: seek failed", Err: err}
	}
	r.buf.Reset()
	r.pos = p
	r.state = stateFresh
	r.headerDone = false
	r.bp.seqBreaks = r.bp.seqBreaks[:0]
	r.err = nil
	return nil
}

// nextComplete advances past the previously yielded record, then scans
// (refilling as needed) until bp holds a complete record. ok=false means
// clean EOF.
func (r *Reader) nextComplete() (bool, error) {
	switch r.state {
	case stateDone:
		return false, nil
	case stateFresh:
		ok, err := r.init()
		if err != nil {
			return false, err
		}
		if !ok {
			r.state = stateDone
			return false, nil
		}
	case stateHave:
		r.advance()
		if r.bp.start >= r.buf.Len() && r.buf.EOF() {
			r.state = stateDone
			return false, nil
		}
	}
	r.state = stateScanning
	if err := r.find(); err != nil {
		return false, err
	}
	r.state = stateHave
	return true, nil
}

// init skips a whitespace-only prefix and positions the reader on the
// first record. ok=false means the input holds no records at all.
func (r *Reader) init() (bool, error) {
	i := 0
	for {
		buf := r.buf.Bytes()
		for i < len(buf) {
			switch buf[i] {
			case '\n':
				r.pos.Line++
				r.pos.Byte++
				i++
			case '\r', ' ', '\t':
				r.pos.Byte++
				i++
			case '>':
				r.startRecord(i)
				return true, nil
			default:
				return false, &seqio.Error{
					Kind: seqio.ErrInvalidStart,
					Pos:  r.pos,
					Msg:  fmt.Sprintf("fasta: expected '>' at record start, found %q", buf[i]),
				}
			}
		}
		if r.buf.EOF() {
			return false, nil
		}
		r.buf.MakeRoom(i)
		i = 0
		if _, err := r.buf.Fill(); err != nil {
			return false, r.ioErr(err)
		}
	}
}

// startRecord resets the scan state for a record beginning at offset i.
func (r *Reader) startRecord(i int) {
	r.bp.start = i
	r.bp.seqBreaks = r.bp.seqBreaks[:0]
	r.headerDone = false
	r.scanned = i + 1
	if r.scanned > r.buf.Len() {
		r.scanned = r.buf.Len()
	}
	r.lineStart = 0
}

// advance consumes the record held in bp, updating the position counters
// and resetting the scan state for the record starting at bp.next.
func (r *Reader) advance() {
	newlines := uint64(len(r.bp.seqBreaks))
	if r.bp.seqStart > r.bp.headEnd {
		newlines++ // header terminator
	}
	if r.bp.seqEnd < r.bp.next {
		newlines++ // final sequence line terminator
	}
	r.pos.Byte += uint64(r.bp.next - r.bp.start)
	r.pos.Line += newlines
	r.pos.Record++
	r.startRecord(r.bp.next)
}

// find scans until bp holds a complete record, refilling, compacting and
// growing the buffer as necessary.
func (r *Reader) find() error {
	for {
		if r.search() {
			return nil
		}
		if r.buf.EOF() {
			r.finishAtEOF()
			return nil
		}
		if r.buf.Free() == 0 {
			if r.bp.start > 0 {
				r.shift()
			} else {
				newCap, ok := r.policy.GrowTo(r.buf.Cap())
				if !ok {
					return &seqio.Error{
						Kind: seqio.ErrBufferLimit,
						Pos:  r.pos,
						Msg:  "fasta: record too large for buffer policy",
					}
				}
				r.buf.Grow(newCap)
			}
		}
		if _, err := r.buf.Fill(); err != nil {
			return r.ioErr(err)
		}
	}
}

// search resumes the scan over the current buffer contents. It returns
// true when bp describes a complete record, false when more bytes are
// needed for a verdict.
func (r *Reader) search() bool {
	buf := r.buf.Bytes()
	if !r.headerDone {
		i := bytes.IndexByte(buf[r.scanned:], '\n')
		if i < 0 {
			r.scanned = len(buf)
			return false
		}
		nl := r.scanned + i
		r.bp.headEnd = nl
		r.bp.seqStart = nl + 1
		r.scanned = nl + 1
		r.lineStart = r.scanned
		r.headerDone = true
	}
	for {
		if r.lineStart == r.scanned {
			if r.lineStart >= len(buf) {
				return false
			}
			if buf[r.lineStart] == '>' {
				r.endRecordAt(r.lineStart)
				return true
			}
		}
		i := bytes.IndexByte(buf[r.scanned:], '\n')
		if i < 0 {
			r.scanned = len(buf)
			return false
		}
		nl := r.scanned + i
		r.bp.seqBreaks = append(r.bp.seqBreaks, nl)
		r.scanned = nl + 1
		r.lineStart = r.scanned
	}
}

// endRecordAt completes bp for a record terminated by a '>' at line start ls.
func (r *Reader) endRecordAt(ls int) {
	r.bp.next = ls
	if ls == r.bp.seqStart {
		r.bp.seqEnd = r.bp.seqStart
	} else {
		r.bp.seqEnd = ls - 1
		r.bp.seqBreaks = r.bp.seqBreaks[:len(r.bp.seqBreaks)-1]
	}
}

// finishAtEOF completes bp for the final record of the input. A trailing
// newline is not required; a header alone yields an empty sequence.
func (r *Reader) finishAtEOF() {
	n := r.buf.Len()
	if !r.headerDone {
		r.bp.headEnd = n
		r.bp.seqStart = n
		r.bp.seqEnd = n
		r.bp.next = n
		return
	}
	r.bp.next = n
	switch {
	case r.lineStart == r.bp.seqStart && r.lineStart >= n:
		r.bp.seqEnd = r.bp.seqStart
	case r.scanned > r.lineStart:
		r.bp.seqEnd = n // unterminated final line
	default:
		r.bp.seqEnd = n - 1
		r.bp.seqBreaks = r.bp.seqBreaks[:len(r.bp.seqBreaks)-1]
	}
}

// shift compacts the buffer, dropping everything before the current record
// and rebasing all scan offsets.
func (r *Reader) shift() {
	c := r.bp.start
	r.buf.MakeRoom(c)
	r.bp.start = 0
	if r.headerDone {
		r.bp.headEnd -= c
		r.bp.seqStart -= c
		for i := range r.bp.seqBreaks {
			r.bp.seqBreaks[i] -= c
		}
		r.lineStart -= c
	}
	r.scanned -= c
}

func (r *Reader) ioErr(err error) error {
	return &seqio.Error{Kind: seqio.ErrIo, Pos: r.pos, Msg: "fasta: read failed", Err: err}
}

// fail records a sticky error; the reader must be Seek'd to a known good
// position before further use.
func (r *Reader) fail(err error) error {
	r.err = err
	return err
}
