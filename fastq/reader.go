// Package fastq provides fast, zero-copy FASTQ parsing.
//
// Reader.Next yields records that borrow from the internal buffer; a record
// is valid until the next call that advances the reader. The default reader
// expects the common single-line form; NewMultiline returns a reader for
// the multi-line variant where sequence and quality may span several lines.
package fastq

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
	stateFresh readerState = iota
	stateScanning
	stateHave
	stateDone
)

type stage int

const (
	stStart stage = iota // expecting '@' of the next record
	stTrail              // whitespace seen where '@' was expected
	stHead
	stSeq
	stSep
	stQual
)

// bufferPosition describes one record's boundaries inside the buffer.
type bufferPosition struct {
	start      int   // index of '@'
	headEnd    int   // '\n' terminating the header
	seqStart   int
	seqBreaks  []int // '\n' indices inside the sequence region (multi-line)
	seqEnd     int   // exclusive end of sequence bytes
	sepStart   int   // index of '+'
	sepEnd     int   // '\n' terminating the separator line
	qualStart  int
	qualBreaks []int // '\n' indices inside the quality region (multi-line)
	qualEnd    int   // exclusive end of quality bytes
	next       int   // start of the next record
}

// Reader parses FASTQ records from an io.Reader.
type Reader struct {
	src    io.Reader
	closer io.Closer
	buf    *core.Buffer
	policy seqio.BufPolicy
	multi  bool

	bp        bufferPosition
	stage     stage
	scanned   int // offset up to which the newline search advanced
	lineStart int // start of the current (possibly partial) line
	seqLen    int // accumulated sequence length (multi-line)
	qualLen   int // accumulated quality length (multi-line)

	pos   seqio.Position
	state readerState
	err   error
	rec   RefRecord
}

// New returns a single-line FASTQ Reader with the default buffer capacity
// and growth policy.
func New(r io.Reader) *Reader {
	return NewWithPolicy(r, core.DefaultCapacity, seqio.StdPolicy{})
}

// NewWithCapacity returns a single-line Reader with the given initial
// buffer capacity.
func NewWithCapacity(r io.Reader, capacity int) *Reader {
	return NewWithPolicy(r, capacity, seqio.StdPolicy{})
}

// NewWithPolicy returns a single-line Reader with the given initial buffer
// capacity and growth policy.
func NewWithPolicy(r io.Reader, capacity int, policy seqio.BufPolicy) *Reader {
	return &Reader{
		src:    r,
		buf:    core.NewBuffer(r, capacity),
		policy: policy,
		pos:    seqio.Position{Line: 1},
	}
}

// NewMultiline returns a Reader for multi-line FASTQ, where sequence and
// quality data may be wrapped across lines. Record termination is decided
// by cumulative length equality, so '@' at the start of a quality line
// carries no meaning.
func NewMultiline(r io.Reader) *Reader {
	rdr := New(r)
	rdr.multi = true
	return rdr
}

// NewFromPath opens path via seqio.Open (decompressing .gz/.zst inputs)
// and returns a single-line Reader owning the file.
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
// buffer. The view is invalidated by any subsequent call that advances
// the reader. Returns io.EOF at clean end of input.
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
		return errors.New("fastq: underlying reader does not support seeking")
	}
	if _, err := s.Seek(int64(p.Byte), io.SeekStart); err != nil {
		return &seqio.Error{Kind: seqio.ErrIo, Pos: p, Msg: "fastq: seek failed", Err: err}
	}
	r.buf.Reset()
	r.pos = p
	r.state = stateFresh
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
	}
	r.state = stateScanning
	ok, err := r.find()
	if err != nil {
		return false, err
	}
	if !ok {
		r.state = stateDone
		return false, nil
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
			case '@':
				r.startRecord(i)
				r.stage = stHead
				r.scanned = i + 1
				return true, nil
			default:
				return false, &seqio.Error{
					Kind: seqio.ErrInvalidStart,
					Pos:  r.pos,
					Msg:  fmt.Sprintf("fastq: expected '@' at record start, found %q", buf[i]),
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

// startRecord resets boundaries and scan state for a record beginning at
// offset i. All offsets start at i so compaction can rebase them blindly.
func (r *Reader) startRecord(i int) {
	r.bp.start = i
	r.bp.headEnd = i
	r.bp.seqStart = i
	r.bp.seqEnd = i
	r.bp.sepStart = i
	r.bp.sepEnd = i
	r.bp.qualStart = i
	r.bp.qualEnd = i
	r.bp.next = i
	r.bp.seqBreaks = r.bp.seqBreaks[:0]
	r.bp.qualBreaks = r.bp.qualBreaks[:0]
	r.stage = stStart
	r.scanned = i
	r.lineStart = i
	r.seqLen = 0
	r.qualLen = 0
}

// advance consumes the record held in bp, updating position counters and
// resetting the scan state for the record starting at bp.next.
func (r *Reader) advance() {
	newlines := uint64(2 + len(r.bp.seqBreaks) + len(r.bp.qualBreaks)) // header + separator
	if r.bp.seqEnd < r.bp.sepStart {
		newlines++ // final sequence line terminator
	}
	if r.bp.qualEnd < r.bp.next {
		newlines++ // final quality line terminator
	}
	r.pos.Byte += uint64(r.bp.next - r.bp.start)
	r.pos.Line += newlines
	r.pos.Record++
	r.startRecord(r.bp.next)
}

// find scans until bp holds a complete record, refilling, compacting and
// growing the buffer as necessary. ok=false means clean EOF.
func (r *Reader) find() (bool, error) {
	for {
		var done bool
		var err error
		if r.multi {
			done, err = r.scanMulti()
		} else {
			done, err = r.scanSingle()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		if done {
			return true, nil
		}
		if r.buf.Free() == 0 {
			if r.bp.start > 0 {
				r.shift()
			} else {
				newCap, ok := r.policy.GrowTo(r.buf.Cap())
				if !ok {
					return false, &seqio.Error{
						Kind: seqio.ErrBufferLimit,
						Pos:  r.pos,
						Msg:  "fastq: record too large for buffer policy",
					}
				}
				r.buf.Grow(newCap)
			}
		}
		if _, err := r.buf.Fill(); err != nil {
			return false, r.ioErr(err)
		}
	}
}

// scanSingle resumes the single-line state machine. Returns done=true when
// bp describes a complete, validated record; err == io.EOF signals clean
// end of input.
func (r *Reader) scanSingle() (bool, error) {
	buf := r.buf.Bytes()
	for {
		switch r.stage {
		case stStart, stTrail:
			ready, err := r.scanStart(buf)
			if !ready {
				return false, err
			}
		case stHead:
			nl, ok := r.findLine(buf)
			if !ok {
				return r.truncated(r.pos, "fastq: record truncated in header")
			}
			r.bp.headEnd = nl
			r.bp.seqStart = nl + 1
			r.stage = stSeq
		case stSeq:
			nl, ok := r.findLine(buf)
			if !ok {
				return r.truncated(r.seqPos(), "fastq: record truncated in sequence")
			}
			r.bp.seqEnd = nl
			r.bp.sepStart = nl + 1
			r.stage = stSep
		case stSep:
			if r.bp.sepStart >= len(buf) {
				return r.truncated(r.sepPos(), "fastq: record truncated before separator")
			}
			if buf[r.bp.sepStart] != '+' {
				return false, &seqio.Error{
					Kind: seqio.ErrInvalidSeparator,
					Pos:  r.sepPos(),
					Msg:  fmt.Sprintf("fastq: expected '+' separator, found %q", buf[r.bp.sepStart]),
				}
			}
			nl, ok := r.findLine(buf)
			if !ok {
				return r.truncated(r.sepPos(), "fastq: record truncated in separator line")
			}
			r.bp.sepEnd = nl
			r.bp.qualStart = nl + 1
			r.stage = stQual
		case stQual:
			if r.bp.qualStart >= len(buf) {
				return r.truncated(r.qualPos(), "fastq: record truncated before quality")
			}
			nl, ok := r.findLine(buf)
			if !ok {
				if !r.buf.EOF() {
					return false, nil
				}
				r.bp.qualEnd = len(buf)
				r.bp.next = len(buf)
			} else {
				r.bp.qualEnd = nl
				r.bp.next = nl + 1
			}
			seq := core.TrimCR(buf[r.bp.seqStart:r.bp.seqEnd])
			qual := core.TrimCR(buf[r.bp.qualStart:r.bp.qualEnd])
			if len(seq) != len(qual) {
				return false, &seqio.Error{
					Kind: seqio.ErrUnequalLengths,
					Pos:  r.qualPos(),
					Msg:  fmt.Sprintf("fastq: sequence length %d != quality length %d", len(seq), len(qual)),
				}
			}
			if err := r.checkSep(buf); err != nil {
				return false, err
			}
			return true, nil
		}
	}
}

// scanStart validates the '@' of a follow-on record, tolerating a
// whitespace-only tail at EOF. ready=true means the header stage may run;
// err == io.EOF signals clean end of input.
func (r *Reader) scanStart(buf []byte) (bool, error) {
	for {
		switch r.stage {
		case stStart:
			if r.scanned >= len(buf) {
				if r.buf.EOF() {
					return false, io.EOF
				}
				return false, nil
			}
			b := buf[r.scanned]
			if b == '@' {
				r.scanned++
				r.stage = stHead
				return true, nil
			}
			if !isBlankByte(b) {
				return false, &seqio.Error{
					Kind: seqio.ErrInvalidStart,
					Pos:  r.pos,
					Msg:  fmt.Sprintf("fastq: expected '@' at record start, found %q", b),
				}
			}
			r.stage = stTrail
		case stTrail:
			for r.scanned < len(buf) && isBlankByte(buf[r.scanned]) {
				r.scanned++
			}
			if r.scanned < len(buf) {
				return false, &seqio.Error{
					Kind: seqio.ErrInvalidStart,
					Pos:  r.trailPos(buf),
					Msg:  "fastq: blank line between records",
				}
			}
			if r.buf.EOF() {
				return false, io.EOF
			}
			return false, nil
		}
	}
}

// findLine locates the next '\n' starting at the scan offset, returning
// its index and advancing past it.
func (r *Reader) findLine(buf []byte) (int, bool) {
	i := bytes.IndexByte(buf[r.scanned:], '\n')
	if i < 0 {
		r.scanned = len(buf)
		return 0, false
	}
	nl := r.scanned + i
	r.scanned = nl + 1
	return nl, true
}

// truncated translates an incomplete line into "need more bytes" before
// EOF and UnexpectedEnd at EOF. pos is the position of the line the input
// broke off in, as computed by the stage's position helper.
func (r *Reader) truncated(pos seqio.Position, msg string) (bool, error) {
	if !r.buf.EOF() {
		return false, nil
	}
	return false, &seqio.Error{Kind: seqio.ErrUnexpectedEnd, Pos: pos, Msg: msg}
}

// checkSep validates the separator line content: it must be empty or
// repeat the header (or just the id).
func (r *Reader) checkSep(buf []byte) error {
	content := core.TrimCR(buf[r.bp.sepStart+1 : r.bp.sepEnd])
	if len(content) == 0 {
		return nil
	}
	head := core.TrimCR(buf[r.bp.start+1 : r.bp.headEnd])
	if bytes.Equal(content, head) || bytes.Equal(content, idBytes(head)) {
		return nil
	}
	return &seqio.Error{
		Kind: seqio.ErrInvalidSeparator,
		Pos:  r.sepPos(),
		Msg:  "fastq: separator line does not match record header",
	}
}

// trailPos returns the position of the byte the trailing-whitespace scan
// stopped at, accounting for the blank bytes consumed since the record
// boundary.
func (r *Reader) trailPos(buf []byte) seqio.Position {
	pos := r.pos
	pos.Byte += uint64(r.scanned - r.bp.start)
	for _, b := range buf[r.bp.start:r.scanned] {
		if b == '\n' {
			pos.Line++
		}
	}
	return pos
}

// seqPos returns the position of the sequence line start.
func (r *Reader) seqPos() seqio.Position {
	return seqio.Position{
		Byte:   r.pos.Byte + uint64(r.bp.seqStart-r.bp.start),
		Line:   r.pos.Line + 1,
		Record: r.pos.Record,
	}
}

// seqLinePos returns the position of the current sequence line during
// multi-line scanning.
func (r *Reader) seqLinePos() seqio.Position {
	return seqio.Position{
		Byte:   r.pos.Byte + uint64(r.lineStart-r.bp.start),
		Line:   r.pos.Line + uint64(1+len(r.bp.seqBreaks)),
		Record: r.pos.Record,
	}
}

// sepPos returns the position of the separator line start.
func (r *Reader) sepPos() seqio.Position {
	lines := uint64(1 + len(r.bp.seqBreaks))
	if r.bp.seqEnd < r.bp.sepStart {
		lines++ // final sequence line terminator
	}
	return seqio.Position{
		Byte:   r.pos.Byte + uint64(r.bp.sepStart-r.bp.start),
		Line:   r.pos.Line + lines,
		Record: r.pos.Record,
	}
}

// qualPos returns the position of the quality line start.
func (r *Reader) qualPos() seqio.Position {
	lines := uint64(2 + len(r.bp.seqBreaks))
	if r.bp.seqEnd < r.bp.sepStart {
		lines++
	}
	return seqio.Position{
		Byte:   r.pos.Byte + uint64(r.bp.qualStart-r.bp.start),
		Line:   r.pos.Line + lines,
		Record: r.pos.Record,
	}
}

// shift compacts the buffer, dropping everything before the current record
// and rebasing all scan offsets.
func (r *Reader) shift() {
	c := r.bp.start
	r.buf.MakeRoom(c)
	r.bp.start -= c
	r.bp.headEnd -= c
	r.bp.seqStart -= c
	r.bp.seqEnd -= c
	r.bp.sepStart -= c
	r.bp.sepEnd -= c
	r.bp.qualStart -= c
	r.bp.qualEnd -= c
	r.bp.next -= c
	for i := range r.bp.seqBreaks {
		r.bp.seqBreaks[i] -= c
	}
	for i := range r.bp.qualBreaks {
		r.bp.qualBreaks[i] -= c
	}
	r.scanned -= c
	r.lineStart -= c
}

func isBlankByte(b byte) bool {
	return b == '\n' || b == '\r' || b == ' ' || b == '\t'
}

func (r *Reader) ioErr(err error) error {
	return &seqio.Error{Kind: seqio.ErrIo, Pos: r.pos, Msg: "fastq: read failed", Err: err}
}

// fail records a sticky error; the reader must be Seek'd to a known good
// position before further use.
func (r *Reader) fail(err error) error {
	r.err = err
	return err
}
