package event

import (
	"bufio"
	"io"
	"strings"
)

// Scanner yields non-blank input lines.
type Scanner struct {
	sc   *bufio.Scanner
	line string
}

// NewScanner reads lines from r, allowing up to 10MB per line.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	return &Scanner{sc: sc}
}

// Scan advances to the next non-blank line.
func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		line := s.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.line = line
		return true
	}
	return false
}

// Line returns the current line as read, without the trailing newline.
func (s *Scanner) Line() string {
	return s.line
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.sc.Err()
}
