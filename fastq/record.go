package fastq

import (
	"io"
	"iter"
	"unicode/utf8"

	"github.com/vertti/seqio"
	"github.com/vertti/seqio/internal/core"
)

// RefRecord is a FASTQ record borrowing its data from a reader's buffer or
// a record set's slab. It is valid until the owning reader advances.
type RefRecord struct {
	buf []byte
	pos *bufferPosition
}

// Head returns the full header line without '@' and line terminator.
func (r RefRecord) Head() []byte {
	return core.TrimCR(r.buf[r.pos.start+1 : r.pos.headEnd])
}

// IDBytes returns the header up to the first space.
func (r RefRecord) IDBytes() []byte {
	return idBytes(r.Head())
}

// ID returns the record id as a string. The id portion of the header is
// UTF-8 validated; the rest of the record is not inspected.
func (r RefRecord) ID() (string, error) {
	return decodeID(r.IDBytes())
}

// DescBytes returns the part of the header after the first space, or nil
// if the header has no description.
func (r RefRecord) DescBytes() []byte {
	return descBytes(r.Head())
}

// Desc returns the description as a string, or "" if there is none.
func (r RefRecord) Desc() (string, error) {
	return decodeDesc(r.DescBytes())
}

// IDDesc splits the header once, returning id and description together.
func (r RefRecord) IDDesc() (string, string, error) {
	return decodeIDDesc(r.Head())
}

// Sep returns the separator line content after '+', without line
// terminator. Usually empty.
func (r RefRecord) Sep() []byte {
	return core.TrimCR(r.buf[r.pos.sepStart+1 : r.pos.sepEnd])
}

// Seq returns the raw sequence bytes. For multi-line records the slice
// still contains the internal line terminators; use SeqLines or FullSeq
// for terminator-free access.
func (r RefRecord) Seq() []byte {
	return core.TrimCR(r.buf[r.pos.seqStart:r.pos.seqEnd])
}

// Qual returns the raw quality bytes, with the same caveat as Seq for
// multi-line records.
func (r RefRecord) Qual() []byte {
	return core.TrimCR(r.buf[r.pos.qualStart:r.pos.qualEnd])
}

// NumSeqLines returns the number of sequence lines.
func (r RefRecord) NumSeqLines() int {
	if r.pos.seqStart == r.pos.seqEnd && len(r.pos.seqBreaks) == 0 {
		return 0
	}
	return len(r.pos.seqBreaks) + 1
}

// NumQualLines returns the number of quality lines.
func (r RefRecord) NumQualLines() int {
	if r.pos.qualStart == r.pos.qualEnd && len(r.pos.qualBreaks) == 0 {
		return 0
	}
	return len(r.pos.qualBreaks) + 1
}

// SeqLines iterates over the sequence lines in order, without line
// terminators.
func (r RefRecord) SeqLines() iter.Seq[[]byte] {
	return lines(r.buf, r.pos.seqStart, r.pos.seqEnd, r.pos.seqBreaks)
}

// QualLines iterates over the quality lines in order, without line
// terminators.
func (r RefRecord) QualLines() iter.Seq[[]byte] {
	return lines(r.buf, r.pos.qualStart, r.pos.qualEnd, r.pos.qualBreaks)
}

func lines(buf []byte, start, end int, breaks []int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if start == end && len(breaks) == 0 {
			return
		}
		for _, nl := range breaks {
			if !yield(core.TrimCR(buf[start:nl])) {
				return
			}
			start = nl + 1
		}
		yield(core.TrimCR(buf[start:end]))
	}
}

// FullSeq returns the sequence without line terminators. Single-line
// sequences are returned as a borrowed slice; multi-line sequences are
// concatenated into scratch, which may be reused across records.
func (r RefRecord) FullSeq(scratch *[]byte) []byte {
	return full(r.SeqLines(), len(r.pos.seqBreaks), r.Seq(), scratch)
}

// FullQual returns the quality without line terminators, with the same
// borrowing behavior as FullSeq.
func (r RefRecord) FullQual(scratch *[]byte) []byte {
	return full(r.QualLines(), len(r.pos.qualBreaks), r.Qual(), scratch)
}

func full(it iter.Seq[[]byte], numBreaks int, raw []byte, scratch *[]byte) []byte {
	if numBreaks == 0 {
		return raw
	}
	s := (*scratch)[:0]
	for line := range it {
		s = append(s, line...)
	}
	*scratch = s
	return s
}

// CloneInto copies the record into rec, reusing its allocations.
func (r RefRecord) CloneInto(rec *Record) {
	rec.Head = append(rec.Head[:0], r.Head()...)
	rec.Seq = rec.Seq[:0]
	for line := range r.SeqLines() {
		rec.Seq = append(rec.Seq, line...)
	}
	rec.Qual = rec.Qual[:0]
	for line := range r.QualLines() {
		rec.Qual = append(rec.Qual, line...)
	}
}

// ToRecord returns an owned copy of the record.
func (r RefRecord) ToRecord() Record {
	var rec Record
	r.CloneInto(&rec)
	return rec
}

// Write writes the record in canonical four-line form with an empty
// separator line.
func (r RefRecord) Write(w io.Writer) error {
	if err := writeHead(w, r.Head()); err != nil {
		return err
	}
	for line := range r.SeqLines() {
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	if _, err := w.Write([]byte("\n+\n")); err != nil {
		return err
	}
	for line := range r.QualLines() {
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

// WriteUnchanged writes the unmodified input bytes of the record, which is
// faster than Write. A final newline is added if the input lacked one.
func (r RefRecord) WriteUnchanged(w io.Writer) error {
	data := r.buf[r.pos.start:r.pos.next]
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		_, err := w.Write([]byte{'\n'})
		return err
	}
	return nil
}

// Record is a FASTQ record owning its data, with line terminators removed.
type Record struct {
	Head []byte
	Seq  []byte
	Qual []byte
}

// ID returns the record id (the header up to the first space).
func (r *Record) ID() (string, error) {
	return decodeID(idBytes(r.Head))
}

// Desc returns the description, or "" if there is none.
func (r *Record) Desc() (string, error) {
	return decodeDesc(descBytes(r.Head))
}

// Write writes the record in canonical four-line form.
func (r *Record) Write(w io.Writer) error {
	return Write(w, r.Head, r.Seq, r.Qual)
}

func idBytes(head []byte) []byte {
	for i, b := range head {
		if b == ' ' {
			return head[:i]
		}
	}
	return head
}

func descBytes(head []byte) []byte {
	for i, b := range head {
		if b == ' ' {
			return head[i+1:]
		}
	}
	return nil
}

func decodeID(id []byte) (string, error) {
	if !utf8.Valid(id) {
		return "", &seqio.Error{Kind: seqio.ErrUtf8, Msg: "record id is not valid UTF-8"}
	}
	return string(id), nil
}

func decodeDesc(desc []byte) (string, error) {
	if desc == nil {
		return "", nil
	}
	if !utf8.Valid(desc) {
		return "", &seqio.Error{Kind: seqio.ErrUtf8, Msg: "record description is not valid UTF-8"}
	}
	return string(desc), nil
}

func decodeIDDesc(head []byte) (string, string, error) {
	id, err := decodeID(idBytes(head))
	if err != nil {
		return "", "", err
	}
	desc, err := decodeDesc(descBytes(head))
	if err != nil {
		return "", "", err
	}
	return id, desc, nil
}
