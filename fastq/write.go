package fastq

import "io"

// Write writes head, seq and qual as a FASTQ record with an empty
// separator line.
func Write(w io.Writer, head, seq, qual []byte) error {
	if err := writeHead(w, head); err != nil {
		return err
	}
	if _, err := w.Write(seq); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n+\n")); err != nil {
		return err
	}
	if _, err := w.Write(qual); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

// WriteParts writes a FASTQ record from separate id and description parts.
// desc may be nil.
func WriteParts(w io.Writer, id, desc, seq, qual []byte) error {
	if _, err := w.Write([]byte{'@'}); err != nil {
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
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return err
	}
	if _, err := w.Write(seq); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n+\n")); err != nil {
		return err
	}
	if _, err := w.Write(qual); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func writeHead(w io.Writer, head []byte) error {
	if _, err := w.Write([]byte{'@'}); err != nil {
		return err
	}
	if _, err := w.Write(head); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}
