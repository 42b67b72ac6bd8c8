package scanner

import (
	"bufio"
	"io"
)

// DefaultMaxLineSize is the longest line a reader source accepts.
// Longer lines fail the scan with bufio.ErrTooLong.
const DefaultMaxLineSize = 1024 * 1024

// LineSource supplies lines one at a time. *bufio.Scanner implements it.
type LineSource interface {
	// Scan advances to the next line and reports whether there is one.
	Scan() bool

	// Text returns the current line without its line terminator.
	Text() string

	// Err returns the first read error, or nil at a clean end of input.
	Err() error
}

// NewReaderSource returns a LineSource reading lines from r.
// A maxLineSize of zero or less selects DefaultMaxLineSize.
func NewReaderSource(r io.Reader, maxLineSize int) *bufio.Scanner {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(64*1024, maxLineSize)), maxLineSize)
	return s
}
