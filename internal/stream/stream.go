// Package stream provides peekable token sources for the value builder.
//
// View and Buffer walk a token slice that has already been produced; Lazy
// pulls from a tokenizer one token at a time. All three report running past
// the last token as a jsonerr.KindEOF error.
package stream

import (
	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
	"github.com/biggeezerdevelopment/shardjson/internal/token"
)

// Stream is a peekable sequence of tokens.
type Stream interface {
	// Peek returns the current token without advancing. The pointer is only
	// valid until the next call to Next.
	Peek() (*token.Token, error)
	// Next returns the current token and advances by one.
	Next() (token.Token, error)
	// HasNext reports whether Peek would return a token other than end of
	// input.
	HasNext() bool
}

// Source produces tokens on demand.
type Source interface {
	ReadToken() (token.Token, error)
}

// View reads a token slice it does not own. Tokens are returned by copy and
// the slice is never modified.
type View struct {
	tokens []token.Token
	pos    int
	end    int
}

// NewView returns a view over tokens. end is the source length, used as the
// offset of end of input errors.
func NewView(tokens []token.Token, end int) *View {
	return &View{tokens: tokens, end: end}
}

func (v *View) Peek() (*token.Token, error) {
	if v.pos >= len(v.tokens) {
		return nil, jsonerr.EOF(v.end)
	}
	return &v.tokens[v.pos], nil
}

func (v *View) Next() (token.Token, error) {
	if v.pos >= len(v.tokens) {
		return token.Token{}, jsonerr.EOF(v.end)
	}
	v.pos++
	return v.tokens[v.pos-1], nil
}

func (v *View) HasNext() bool {
	return hasNext(v)
}

// Buffer owns its token slice. Next moves each token out and zeroes the slot,
// so once a token is consumed the buffer no longer references its payload.
type Buffer struct {
	tokens []token.Token
	pos    int
	end    int
}

// NewBuffer takes ownership of tokens.
func NewBuffer(tokens []token.Token, end int) *Buffer {
	return &Buffer{tokens: tokens, end: end}
}

func (b *Buffer) Peek() (*token.Token, error) {
	if b.pos >= len(b.tokens) {
		return nil, jsonerr.EOF(b.end)
	}
	return &b.tokens[b.pos], nil
}

func (b *Buffer) Next() (token.Token, error) {
	if b.pos >= len(b.tokens) {
		return token.Token{}, jsonerr.EOF(b.end)
	}
	tok := b.tokens[b.pos]
	b.tokens[b.pos] = token.Token{}
	b.pos++
	return tok, nil
}

func (b *Buffer) HasNext() bool {
	return hasNext(b)
}

// Remaining is the number of tokens not yet consumed.
func (b *Buffer) Remaining() int {
	return len(b.tokens) - b.pos
}

// Lazy tokenizes as the builder asks for tokens, holding at most one token
// of lookahead. Lexical errors surface from Peek or Next at the point the
// builder reaches them.
type Lazy struct {
	src    Source
	peeked token.Token
	err    error
	has    bool
}

func NewLazy(src Source) *Lazy {
	return &Lazy{src: src}
}

func (l *Lazy) fill() {
	if l.has || l.err != nil {
		return
	}
	tok, err := l.src.ReadToken()
	if err != nil {
		l.err = err
		return
	}
	if tok.Type == token.EOF {
		l.err = jsonerr.EOF(tok.Pos)
		return
	}
	l.peeked, l.has = tok, true
}

func (l *Lazy) Peek() (*token.Token, error) {
	l.fill()
	if l.err != nil {
		return nil, l.err
	}
	return &l.peeked, nil
}

func (l *Lazy) Next() (token.Token, error) {
	l.fill()
	if l.err != nil {
		return token.Token{}, l.err
	}
	tok := l.peeked
	l.peeked, l.has = token.Token{}, false
	return tok, nil
}

func (l *Lazy) HasNext() bool {
	return hasNext(l)
}

func hasNext(s Stream) bool {
	tok, err := s.Peek()
	return err == nil && tok.Type != token.EOF
}
