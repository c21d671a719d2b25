package seqio

import "fmt"

// Position locates a record in the input stream. Byte offsets are 0-based
// and count every byte in the source, including line terminators. Line
// numbers are 1-based and increment on every '\n'. Record indices are
// 0-based and increment after each successfully parsed record.
type Position struct {
	Byte   uint64 // absolute byte offset
	Line   uint64 // 1-based line number
	Record uint64 // 0-based record index
}

func (p Position) String() string {
	return fmt.Sprintf("record %d, line %d (byte %d)", p.Record, p.Line, p.Byte)
}
