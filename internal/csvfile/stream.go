package csvfile

// stream.go holds the io.Reader wrappers applied to every statement before
// it reaches encoding/csv:
//
//   - bomSkipper drops a leading UTF-8 byte-order mark (Excel on Windows)
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?' so a stray
//     Latin-1 byte in a memo column does not poison the whole file

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type bomSkipper struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkipper(r io.Reader) *bomSkipper {
	return &bomSkipper{r: bufio.NewReader(r)}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

type utf8Sanitizer struct {
	r io.Reader
	// pending holds the start of a multi-byte rune split across reads.
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, c := range data {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand
// out. Unless atEOF, an incomplete rune at the end is kept for the next read.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// wrap applies BOM skipping and then UTF-8 sanitizing.
func wrap(r io.Reader) io.Reader {
	return newUTF8Sanitizer(newBOMSkipper(r))
}
