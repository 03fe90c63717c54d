package wire

// MaxLineLen bounds the accumulated line. Commands are at most ~50 bytes
// on the wire; the margin covers future device sets without growing the
// arena at run time.
const MaxLineLen = 128

// Framer accumulates serial bytes into a bounded line buffer. It is fed
// one byte at a time from the receive context and never allocates; a
// completed line is handed out as a slice of the internal arena and must
// be consumed (copied) before the next Feed. The arena holds one byte
// past the bound so an oversized line is delivered longer than
// MaxLineLen and rejected whole by the parser, never as a truncated
// prefix that might still parse.
type Framer struct {
	buf [MaxLineLen + 1]byte
	n   int
}

// Feed consumes one byte. When b completes a line, the line is returned
// with done=true and the framer resets for the next one. Empty lines
// (e.g. the LF of a CRLF pair) are swallowed.
func (f *Framer) Feed(b byte) (line []byte, done bool) {
	if b == '\n' || b == '\r' {
		if f.n == 0 {
			return nil, false
		}
		line, done = f.buf[:f.n], true
		f.n = 0
		return
	}
	if f.n > MaxLineLen {
		// Keep discarding until the terminator; the overlong line
		// fails downstream by length.
		return nil, false
	}
	f.buf[f.n] = b
	f.n++
	return nil, false
}

// Pending reports the number of buffered bytes of the incomplete line.
func (f *Framer) Pending() int {
	return f.n
}

// Reset discards any partially accumulated line.
func (f *Framer) Reset() {
	f.n = 0
}
