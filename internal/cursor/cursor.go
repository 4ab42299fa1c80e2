// Package cursor provides peekable readers over a source document, either
// byte by byte or rune by rune.
package cursor

import (
	"unicode/utf8"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
)

// Unit is the element a Cursor yields.
type Unit interface {
	~byte | ~rune
}

// Cursor is a forward-only reader with one unit of lookahead. Peek is
// idempotent; Next consumes. Both return a jsonerr.KindEOF error once the
// source is exhausted.
type Cursor[U Unit] interface {
	Peek() (U, error)
	Next() (U, error)
	// Offset is the byte offset of the next unconsumed unit.
	Offset() int
}

// Bytes reads a byte slice one byte at a time.
type Bytes struct {
	buf []byte
	pos int
}

func NewBytes(buf []byte) *Bytes {
	return &Bytes{buf: buf}
}

func (c *Bytes) Peek() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, jsonerr.EOF(c.pos)
	}
	return c.buf[c.pos], nil
}

func (c *Bytes) Next() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, jsonerr.EOF(c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *Bytes) Offset() int {
	return c.pos
}

// Runes decodes UTF-8 from a byte slice one code point at a time. Invalid
// sequences yield utf8.RuneError and consume a single byte.
type Runes struct {
	buf []byte
	pos int

	peeked  rune
	width   int
	hasPeek bool
}

func NewRunes(buf []byte) *Runes {
	return &Runes{buf: buf}
}

func (c *Runes) decode() (rune, int) {
	if b := c.buf[c.pos]; b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(c.buf[c.pos:])
}

func (c *Runes) Peek() (rune, error) {
	if c.hasPeek {
		return c.peeked, nil
	}
	if c.pos >= len(c.buf) {
		return 0, jsonerr.EOF(c.pos)
	}
	c.peeked, c.width = c.decode()
	c.hasPeek = true
	return c.peeked, nil
}

func (c *Runes) Next() (rune, error) {
	if c.hasPeek {
		c.hasPeek = false
		c.pos += c.width
		return c.peeked, nil
	}
	if c.pos >= len(c.buf) {
		return 0, jsonerr.EOF(c.pos)
	}
	r, w := c.decode()
	c.pos += w
	return r, nil
}

func (c *Runes) Offset() int {
	return c.pos
}
