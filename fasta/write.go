package fasta

import (
	"io"
	"iter"
)

// Write writes head and seq as a FASTA record, with the sequence on one
// line.
func Write(w io.Writer, head, seq []byte) error {
	if err := writeHead(w, head); err != nil {
		return err
	}
	return writeSeq(w, seq)
}

// WriteParts writes a FASTA record from separate id and description parts.
// desc may be nil.
func WriteParts(w io.Writer, id, desc, seq []byte) error {
	if err := writeIDDesc(w, id, desc); err != nil {
		return err
	}
	return writeSeq(w, seq)
}

// WriteWrap writes a FASTA record with the sequence wrapped to at most
// wrap bytes per line. desc may be nil.
func WriteWrap(w io.Writer, id, desc, seq []byte, wrap int) error {
	if err := writeIDDesc(w, id, desc); err != nil {
		return err
	}
	return writeWrapSeq(w, seq, wrap)
}

func writeHead(w io.Writer, head []byte) error {
	if _, err := w.Write([]byte{'>'}); err != nil {
		return err
	}
	if _, err := w.Write(head); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func writeIDDesc(w io.Writer, id, desc []byte) error {
	if _, err := w.Write([]byte{'>'}); err != nil {
		return err
	}
	if _, err := w.Write(id); err != nil {
		return err
	}
	if desc != nil {
		if _, err := w.Write([]byte{' '}); err != nil {
			return err
		}
		if _, err := w.Write(desc); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func writeSeq(w io.Writer, seq []byte) error {
	if _, err := w.Write(seq); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func writeSeqLines(w io.Writer, lines iter.Seq[[]byte]) error {
	for line := range lines {
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func writeWrapSeq(w io.Writer, seq []byte, wrap int) error {
	for len(seq) > 0 {
		n := min(wrap, len(seq))
		if _, err := w.Write(seq[:n]); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
		seq = seq[n:]
	}
	return nil
}

// writeWrapSeqLines wraps a sequence given as separate lines, carrying the
// fill width across line boundaries.
func writeWrapSeqLines(w io.Writer, lines iter.Seq[[]byte], wrap int) error {
	filled := 0
	for line := range lines {
		for len(line) > 0 {
			remaining := wrap - filled
			if len(line) <= remaining {
				if _, err := w.Write(line); err != nil {
					return err
				}
				filled += len(line)
				break
			}
			if _, err := w.Write(line[:remaining]); err != nil {
				return err
			}
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return err
			}
			line = line[remaining:]
			filled = 0
		}
	}
	_, err := w.Write([]byte{'\n'})
	return err
}
