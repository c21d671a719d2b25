package fastq

import (
	"fmt"

	"github.com/vertti/seqio"
	"github.com/vertti/seqio/internal/core"
)

// scanMulti resumes the multi-line state machine. Sequence lines accumulate
// until a line begins with '+'; quality lines then accumulate until their
// cumulative length equals the sequence length. A quality line may begin
// with '@', so termination is decided by length alone.
func (r *Reader) scanMulti() (bool, error) {
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
			r.lineStart = nl + 1
			r.stage = stSeq
		case stSeq:
			if r.lineStart == r.scanned {
				if r.lineStart >= len(buf) {
					return r.truncated(r.seqLinePos(), "fastq: record truncated before separator")
				}
				if buf[r.lineStart] == '+' {
					r.bp.sepStart = r.lineStart
					if r.lineStart == r.bp.seqStart {
						r.bp.seqEnd = r.bp.seqStart
					} else {
						r.bp.seqEnd = r.lineStart - 1
						r.bp.seqBreaks = r.bp.seqBreaks[:len(r.bp.seqBreaks)-1]
					}
					r.stage = stSep
					continue
				}
			}
			nl, ok := r.findLine(buf)
			if !ok {
				return r.truncated(r.seqLinePos(), "fastq: record truncated before separator")
			}
			r.seqLen += len(core.TrimCR(buf[r.lineStart:nl]))
			r.bp.seqBreaks = append(r.bp.seqBreaks, nl)
			r.lineStart = r.scanned
		case stSep:
			nl, ok := r.findLine(buf)
			if !ok {
				return r.truncated(r.sepPos(), "fastq: record truncated in separator line")
			}
			r.bp.sepEnd = nl
			r.bp.qualStart = nl + 1
			r.lineStart = nl + 1
			r.stage = stQual
			if r.seqLen == 0 {
				r.bp.qualEnd = r.bp.qualStart
				r.bp.next = r.bp.qualStart
				if err := r.checkSep(buf); err != nil {
					return false, err
				}
				return true, nil
			}
		case stQual:
			nl, ok := r.findLine(buf)
			if !ok {
				if !r.buf.EOF() {
					return false, nil
				}
				// unterminated final quality line
				total := r.qualLen + len(core.TrimCR(buf[r.lineStart:]))
				switch {
				case total == r.seqLen:
					r.bp.qualEnd = len(buf)
					r.bp.next = len(buf)
					if err := r.checkSep(buf); err != nil {
						return false, err
					}
					return true, nil
				case total < r.seqLen:
					return false, &seqio.Error{
						Kind: seqio.ErrUnexpectedEnd,
						Pos:  r.qualPos(),
						Msg:  fmt.Sprintf("fastq: input ended with quality length %d < sequence length %d", total, r.seqLen),
					}
				default:
					return false, &seqio.Error{
						Kind: seqio.ErrUnequalLengths,
						Pos:  r.qualPos(),
						Msg:  fmt.Sprintf("fastq: quality length %d exceeds sequence length %d", total, r.seqLen),
					}
				}
			}
			r.qualLen += len(core.TrimCR(buf[r.lineStart:nl]))
			switch {
			case r.qualLen == r.seqLen:
				r.bp.qualEnd = nl
				r.bp.next = nl + 1
				r.lineStart = r.scanned
				if err := r.checkSep(buf); err != nil {
					return false, err
				}
				return true, nil
			case r.qualLen > r.seqLen:
				return false, &seqio.Error{
					Kind: seqio.ErrUnequalLengths,
					Pos:  r.qualPos(),
					Msg:  fmt.Sprintf("fastq: quality length %d exceeds sequence length %d", r.qualLen, r.seqLen),
				}
			}
			r.bp.qualBreaks = append(r.bp.qualBreaks, nl)
			r.lineStart = r.scanned
		}
	}
}
