// Package parser builds value trees from a token stream by recursive descent.
package parser

import (
	"fmt"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
	"github.com/biggeezerdevelopment/shardjson/internal/stream"
	"github.com/biggeezerdevelopment/shardjson/internal/token"
	"github.com/biggeezerdevelopment/shardjson/internal/value"
)

// DefaultMaxDepth bounds nesting when no explicit limit is configured.
const DefaultMaxDepth = 1000

// Builder consumes a token stream and produces a value tree.
type Builder struct {
	s        stream.Stream
	maxDepth int
	depth    int
}

// New returns a builder over s. maxDepth limits array and object nesting;
// 0 disables the limit.
func New(s stream.Stream, maxDepth int) *Builder {
	return &Builder{s: s, maxDepth: maxDepth}
}

// Parse builds exactly one value and rejects any tokens left after it.
func (b *Builder) Parse() (value.Value, error) {
	v, err := b.BuildValue()
	if err != nil {
		return value.Value{}, err
	}
	if b.s.HasNext() {
		tok, _ := b.s.Peek()
		return value.Value{}, jsonerr.Syntax(tok.Pos, fmt.Sprintf("unexpected %s after top-level value", tok.Type))
	}
	// a lexical error past the value still fails the document
	if _, err := b.s.Peek(); err != nil && jsonerr.KindOf(err) != jsonerr.KindEOF {
		return value.Value{}, err
	}
	return v, nil
}

// BuildValue dispatches on the next token.
func (b *Builder) BuildValue() (value.Value, error) {
	tok, err := b.s.Peek()
	if err != nil {
		return value.Value{}, err
	}
	switch tok.Type {
	case token.ObjectBegin:
		return b.BuildObject()
	case token.ArrayBegin:
		return b.BuildArray()
	case token.String, token.Number, token.Bool, token.Null:
		t, _ := b.s.Next()
		return scalar(t), nil
	case token.EOF:
		return value.Value{}, jsonerr.EOF(tok.Pos)
	}
	return value.Value{}, unexpected(tok, "expected a value")
}

func scalar(t token.Token) value.Value {
	switch t.Type {
	case token.String:
		return value.String(t.Str)
	case token.Number:
		return value.Number(t.Num)
	case token.Bool:
		return value.Bool(t.Bool)
	}
	return value.Null()
}

func (b *Builder) BuildArray() (value.Value, error) {
	elems := []value.Value{}
	err := b.collection(token.ArrayBegin, token.ArrayEnd, func() error {
		v, err := b.BuildValue()
		if err != nil {
			return err
		}
		elems = append(elems, v)
		return nil
	})
	if err != nil {
		return value.Value{}, err
	}
	return value.Array(elems...), nil
}

func (b *Builder) BuildObject() (value.Value, error) {
	obj := value.NewObject(0)
	err := b.collection(token.ObjectBegin, token.ObjectEnd, func() error {
		key, v, err := b.BuildPair()
		if err != nil {
			return err
		}
		obj.Set(key, v)
		return nil
	})
	if err != nil {
		return value.Value{}, err
	}
	return value.ObjectOf(obj), nil
}

// BuildPair reads a key, a colon and a value.
func (b *Builder) BuildPair() (string, value.Value, error) {
	tok, err := b.s.Next()
	if err != nil {
		return "", value.Value{}, err
	}
	if tok.Type != token.String {
		return "", value.Value{}, unexpected(&tok, "object key must be a string")
	}
	colon, err := b.s.Next()
	if err != nil {
		return "", value.Value{}, err
	}
	if colon.Type != token.Colon {
		return "", value.Value{}, unexpected(&colon, "expected ':' after object key")
	}
	v, err := b.BuildValue()
	if err != nil {
		return "", value.Value{}, err
	}
	return tok.Str, v, nil
}

type collectionState uint8

const (
	expectFirstOrEnd collectionState = iota
	expectCommaOrEnd
	expectNext
)

// collection runs the state machine shared by arrays and objects. element
// parses one member when the stream is positioned at it.
func (b *Builder) collection(open, end token.Type, element func() error) error {
	tok, err := b.s.Next()
	if err != nil {
		return err
	}
	if tok.Type != open {
		return unexpected(&tok, fmt.Sprintf("expected %s", open))
	}
	b.depth++
	defer func() { b.depth-- }()
	if b.maxDepth > 0 && b.depth > b.maxDepth {
		return jsonerr.New(jsonerr.KindDepth, tok.Pos, fmt.Sprintf("nesting deeper than %d", b.maxDepth))
	}

	state := expectFirstOrEnd
	for {
		next, err := b.s.Peek()
		if err != nil {
			return err
		}
		if next.Type == token.EOF {
			return jsonerr.EOF(next.Pos)
		}

		switch state {
		case expectFirstOrEnd, expectCommaOrEnd:
			if next.Type == end {
				b.s.Next()
				return nil
			}
			if state == expectCommaOrEnd {
				if next.Type != token.Comma {
					return unexpected(next, fmt.Sprintf("expected ',' or %s", end))
				}
				b.s.Next()
				state = expectNext
				continue
			}
		case expectNext:
			if next.Type == end {
				return unexpected(next, "trailing comma")
			}
		}

		if err := element(); err != nil {
			return err
		}
		state = expectCommaOrEnd
	}
}

func unexpected(tok *token.Token, msg string) error {
	return jsonerr.Syntax(tok.Pos, fmt.Sprintf("unexpected %s, %s", tok.Type, msg))
}
