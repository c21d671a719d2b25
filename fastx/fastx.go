// Package fastx reads sequence files whose format — FASTA or FASTQ — is
// not known up front. The first non-whitespace byte of the stream decides
// the format; afterwards the reader behaves exactly like the chosen
// format's reader, yielding records through a uniform interface.
package fastx

import (
	"errors"
	"fmt"
	"io"

	"github.com/vertti/seqio"
	"github.com/vertti/seqio/fasta"
	"github.com/vertti/seqio/fastq"
	"github.com/vertti/seqio/internal/core"
)

// Format identifies the detected input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatFASTA
	FormatFASTQ
)

func (f Format) String() string {
	switch f {
	case FormatFASTA:
		return "FASTA"
	case FormatFASTQ:
		return "FASTQ"
	}
	return "unknown"
}

// Record is the uniform view over FASTA and FASTQ records. It is
// implemented by fasta.RefRecord and fastq.RefRecord; callers that only
// need id and sequence can stay format-agnostic.
type Record interface {
	Head() []byte
	IDBytes() []byte
	ID() (string, error)
	DescBytes() []byte
	Desc() (string, error)
	Seq() []byte
	FullSeq(scratch *[]byte) []byte
	Write(w io.Writer) error
}

var (
	_ Record = fasta.RefRecord{}
	_ Record = fastq.RefRecord{}
)

// DetectFormat inspects the first bytes of a stream and reports the
// format. ok=false means the prefix is all whitespace or starts with a
// byte that belongs to neither format.
func DetectFormat(prefix []byte) (Format, bool) {
	for _, b := range prefix {
		switch b {
		case '\n', '\r', ' ', '\t':
		case '>':
			return FormatFASTA, true
		case '@':
			return FormatFASTQ, true
		default:
			return FormatUnknown, false
		}
	}
	return FormatUnknown, false
}

// Reader auto-detects FASTA vs FASTQ and delegates to the matching
// format reader.
type Reader struct {
	format Format
	fa     *fasta.Reader
	fq     *fastq.Reader
	closer io.Closer
}

// New returns a Reader over r with the default buffer capacity and growth
// policy. The format is detected eagerly, so New reads from r; a stream
// with no records at all yields a Reader whose Next returns io.EOF.
func New(r io.Reader) (*Reader, error) {
	return NewWithPolicy(r, core.DefaultCapacity, seqio.StdPolicy{})
}

// NewWithPolicy is New with an explicit initial buffer capacity and
// growth policy.
func NewWithPolicy(r io.Reader, capacity int, policy seqio.BufPolicy) (*Reader, error) {
	pre, format, err := detect(r)
	if err != nil {
		return nil, err
	}
	src := r
	if s, ok := r.(io.Seeker); ok {
		// rewind instead of prefixing, keeping the source seekable
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	} else {
		src = &prefixReader{pre: pre, r: r}
	}
	x := &Reader{format: format}
	switch format {
	case FormatFASTA:
		x.fa = fasta.NewWithPolicy(src, capacity, policy)
	case FormatFASTQ:
		x.fq = fastq.NewWithPolicy(src, capacity, policy)
	}
	return x, nil
}

// NewFromPath opens path via seqio.Open (decompressing .gz/.zst inputs)
// and returns a Reader owning the file.
func NewFromPath(path string) (*Reader, error) {
	f, err := seqio.Open(path)
	if err != nil {
		return nil, err
	}
	x, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	x.closer = f
	return x, nil
}

// Close closes the underlying file if the Reader was built by NewFromPath.
func (x *Reader) Close() error {
	if x.closer == nil {
		return nil
	}
	return x.closer.Close()
}

// Format returns the detected format, or FormatUnknown for an input
// without records.
func (x *Reader) Format() Format { return x.format }

// FASTA returns the underlying FASTA reader, or nil if the input was not
// detected as FASTA. Useful for record-set batching on auto-detected
// inputs.
func (x *Reader) FASTA() *fasta.Reader { return x.fa }

// FASTQ returns the underlying FASTQ reader, or nil if the input was not
// detected as FASTQ.
func (x *Reader) FASTQ() *fastq.Reader { return x.fq }

// Next returns the next record. The view borrows from the underlying
// reader's buffer and is invalidated by the next call. Returns io.EOF at
// clean end of input.
func (x *Reader) Next() (Record, error) {
	switch x.format {
	case FormatFASTA:
		rec, err := x.fa.Next()
		if err != nil {
			return nil, err
		}
		return *rec, nil
	case FormatFASTQ:
		rec, err := x.fq.Next()
		if err != nil {
			return nil, err
		}
		return *rec, nil
	}
	return nil, io.EOF
}

// Position returns the position at the start of the most recently yielded
// record.
func (x *Reader) Position() seqio.Position {
	switch x.format {
	case FormatFASTA:
		return x.fa.Position()
	case FormatFASTQ:
		return x.fq.Position()
	}
	return seqio.Position{Line: 1}
}

// Seek repositions the reader; the underlying source must implement
// io.Seeker and must not have been wrapped by format detection (sources
// that are not io.Seekers cannot be sought).
func (x *Reader) Seek(p seqio.Position) error {
	switch x.format {
	case FormatFASTA:
		return x.fa.Seek(p)
	case FormatFASTQ:
		return x.fq.Seek(p)
	}
	return errors.New("fastx: no records detected, nothing to seek")
}

// detect reads from r until the first non-whitespace byte decides the
// format. The consumed bytes are returned for replay.
func detect(r io.Reader) ([]byte, Format, error) {
	var pre []byte
	tmp := make([]byte, 4096)
	pos := seqio.Position{Line: 1}
	for {
		n, err := r.Read(tmp)
		start := len(pre)
		pre = append(pre, tmp[:n]...)
		for _, b := range pre[start:] {
			switch b {
			case '\n':
				pos.Line++
				pos.Byte++
			case '\r', ' ', '\t':
				pos.Byte++
			case '>':
				return pre, FormatFASTA, nil
			case '@':
				return pre, FormatFASTQ, nil
			default:
				return nil, FormatUnknown, &seqio.Error{
					Kind: seqio.ErrInvalidStart,
					Pos:  pos,
					Msg:  fmt.Sprintf("fastx: expected '>' or '@' at record start, found %q", b),
				}
			}
		}
		if err == io.EOF {
			return pre, FormatUnknown, nil
		}
		if err != nil {
			return nil, FormatUnknown, &seqio.Error{Kind: seqio.ErrIo, Pos: pos, Msg: "fastx: read failed", Err: err}
		}
	}
}

// prefixReader replays the bytes consumed during detection before
// continuing with the wrapped reader.
type prefixReader struct {
	pre []byte
	r   io.Reader
}

func (p *prefixReader) Read(b []byte) (int, error) {
	if len(p.pre) > 0 {
		n := copy(b, p.pre)
		p.pre = p.pre[n:]
		return n, nil
	}
	return p.r.Read(b)
}
