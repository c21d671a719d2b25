package fastq

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/vertti/seqio"
)

// RecordSet is an owned batch of consecutive records: a copied byte slab
// plus per-record boundaries. Unlike RefRecord, a RecordSet is independent
// of the reader and may be moved across goroutines. The zero value is
// ready for use; buffers are reused across refills.
type RecordSet struct {
	buf       []byte
	positions []bufferPosition
	n         int
	startPos  seqio.Position
}

// Len returns the number of records in the set.
func (s *RecordSet) Len() int { return s.n }

// IsEmpty reports whether the set holds no records.
func (s *RecordSet) IsEmpty() bool { return s.n == 0 }

// StartPosition returns the position of the first record in the set.
func (s *RecordSet) StartPosition() seqio.Position { return s.startPos }

// BufCapacity returns the capacity of the set's byte slab.
func (s *RecordSet) BufCapacity() int { return cap(s.buf) }

// ShrinkToFit reallocates the byte slab to its used size.
func (s *RecordSet) ShrinkToFit() {
	if cap(s.buf) > len(s.buf) {
		buf := make([]byte, len(s.buf))
		copy(buf, s.buf)
		s.buf = buf
	}
}

// Records iterates over views of the records in the set. The views borrow
// from the set and are invalidated when the set is refilled.
func (s *RecordSet) Records() iter.Seq[RefRecord] {
	return func(yield func(RefRecord) bool) {
		for i := 0; i < s.n; i++ {
			if !yield(RefRecord{buf: s.buf, pos: &s.positions[i]}) {
				return
			}
		}
	}
}

// WriteTo writes all records of the set in canonical form.
func (s *RecordSet) WriteTo(w io.Writer) error {
	for rec := range s.Records() {
		if err := rec.Write(w); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecordSet) reset() {
	s.buf = s.buf[:0]
	s.n = 0
}

// appendPos stores a copy of bp with all offsets shifted down by rebase,
// reusing the break slices of previously stored entries.
func (s *RecordSet) appendPos(bp *bufferPosition, rebase int) {
	if s.n >= len(s.positions) {
		s.positions = append(s.positions, bufferPosition{})
	}
	p := &s.positions[s.n]
	p.start = bp.start - rebase
	p.headEnd = bp.headEnd - rebase
	p.seqStart = bp.seqStart - rebase
	p.seqEnd = bp.seqEnd - rebase
	p.sepStart = bp.sepStart - rebase
	p.sepEnd = bp.sepEnd - rebase
	p.qualStart = bp.qualStart - rebase
	p.qualEnd = bp.qualEnd - rebase
	p.next = bp.next - rebase
	p.seqBreaks = p.seqBreaks[:0]
	for _, b := range bp.seqBreaks {
		p.seqBreaks = append(p.seqBreaks, b-rebase)
	}
	p.qualBreaks = p.qualBreaks[:0]
	for _, b := range bp.qualBreaks {
		p.qualBreaks = append(p.qualBreaks, b-rebase)
	}
	s.n++
}

// ReadRecordSet refills rs with as many complete records as the current
// buffer window holds, copying their bytes out of the reader. At least one
// record is read, refilling and growing the buffer as needed. Returns
// false at clean EOF. If a later record in the window is malformed, the
// records before it are returned and the error surfaces on the next call.
func (r *Reader) ReadRecordSet(rs *RecordSet) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	rs.reset()
	ok, err := r.nextComplete()
	if err != nil {
		return false, r.fail(err)
	}
	if !ok {
		return false, nil
	}
	rs.startPos = r.pos
	base := r.bp.start
	var end int
	for {
		rs.appendPos(&r.bp, base)
		end = r.bp.next
		r.advance()
		if r.bp.start >= r.buf.Len() && r.buf.EOF() {
			r.state = stateDone
			break
		}
		r.state = stateScanning
		var done bool
		var scanErr error
		if r.multi {
			done, scanErr = r.scanMulti()
		} else {
			done, scanErr = r.scanSingle()
		}
		if scanErr != nil {
			if errors.Is(scanErr, io.EOF) {
				r.state = stateDone
			} else {
				r.fail(scanErr)
			}
			break
		}
		if !done {
			break
		}
		r.state = stateHave
	}
	rs.buf = append(rs.buf[:0], r.buf.Bytes()[base:end]...)
	return true, nil
}

// ReadRecordSetExact refills rs with exactly n records, refilling and
// growing the buffer as needed (for paired-end lock-step reading).
// Returns false at clean EOF before any record was read; EOF mid-batch is
// an error.
func (r *Reader) ReadRecordSetExact(rs *RecordSet, n int) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	rs.reset()
	for i := 0; i < n; i++ {
		ok, err := r.nextComplete()
		if err != nil {
			return false, r.fail(err)
		}
		if !ok {
			if i == 0 {
				return false, nil
			}
			return false, r.fail(&seqio.Error{
				Kind: seqio.ErrUnexpectedEnd,
				Pos:  r.pos,
				Msg:  fmt.Sprintf("fastq: input ended after %d of %d records", i, n),
			})
		}
		if i == 0 {
			rs.startPos = r.pos
		}
		rebase := r.bp.start - len(rs.buf)
		rs.buf = append(rs.buf, r.buf.Bytes()[r.bp.start:r.bp.next]...)
		rs.appendPos(&r.bp, rebase)
	}
	return true, nil
}
