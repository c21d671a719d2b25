package seqio

import (
	"errors"
	"fmt"
)

// ErrorKind classifies parse errors.
type ErrorKind int

const (
	// ErrIo: the underlying byte source failed. The wrapped error holds
	// the original io error.
	ErrIo ErrorKind = iota
	// ErrUnexpectedEnd: the input ended in the middle of a record.
	ErrUnexpectedEnd
	// ErrInvalidStart: a record does not begin with '>' / '@'.
	ErrInvalidStart
	// ErrInvalidSeparator: the FASTQ '+' line is missing, or its content is
	// non-empty and matches neither the header nor the id.
	ErrInvalidSeparator
	// ErrUnequalLengths: FASTQ sequence and quality byte counts differ.
	ErrUnequalLengths
	// ErrBufferLimit: a record exceeds the growth policy's cap.
	ErrBufferLimit
	// ErrUtf8: header text requested via ID/Desc is not valid UTF-8.
	ErrUtf8
)

func (k ErrorKind) String() string {
	switch k {
	case ErrIo:
		return "io error"
	case ErrUnexpectedEnd:
		return "unexpected end of input"
	case ErrInvalidStart:
		return "invalid record start"
	case ErrInvalidSeparator:
		return "invalid separator line"
	case ErrUnequalLengths:
		return "sequence and quality lengths differ"
	case ErrBufferLimit:
		return "buffer limit reached"
	case ErrUtf8:
		return "invalid UTF-8"
	}
	return "unknown error"
}

// Error is the error type returned by all readers. Pos refers to the byte
// the error was detected at; for record-level errors this is the start of
// the offending line.
type Error struct {
	Kind ErrorKind
	Pos  Position
	Msg  string
	Err  error // wrapped io error, if Kind == ErrIo
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Kind == ErrIo && e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Kind == ErrUtf8 {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, e.Pos)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is (or wraps) a *seqio.Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
