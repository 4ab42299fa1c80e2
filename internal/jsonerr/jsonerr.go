// Package jsonerr defines the decode error taxonomy shared by every stage of
// the pipeline.
package jsonerr

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind categorizes decode errors.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindEOF: lookahead or consumption past the last unit or token.
	KindEOF
	// KindIllegalUnit: a byte or rune that cannot begin any token.
	KindIllegalUnit
	// KindIllegalToken: a literal or number that breaks its own sub-grammar.
	KindIllegalToken
	// KindIllegalEscape: unsupported escape sequence under the strict policy.
	KindIllegalEscape
	// KindSyntax: a token the current parser state does not permit.
	KindSyntax
	// KindPartition: no safe shard boundary could be found.
	KindPartition
	// KindDepth: nesting exceeded the configured maximum.
	KindDepth
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "unexpected end of input"
	case KindIllegalUnit:
		return "illegal character"
	case KindIllegalToken:
		return "illegal token"
	case KindIllegalEscape:
		return "illegal escape"
	case KindSyntax:
		return "syntax error"
	case KindPartition:
		return "partition error"
	case KindDepth:
		return "maximum depth exceeded"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is comparisons. Matching is by Kind only.
var (
	ErrEOF           = &Error{Kind: KindEOF, Offset: -1}
	ErrIllegalUnit   = &Error{Kind: KindIllegalUnit, Offset: -1}
	ErrIllegalToken  = &Error{Kind: KindIllegalToken, Offset: -1}
	ErrIllegalEscape = &Error{Kind: KindIllegalEscape, Offset: -1}
	ErrSyntax        = &Error{Kind: KindSyntax, Offset: -1}
	ErrPartition     = &Error{Kind: KindPartition, Offset: -1}
	ErrDepth         = &Error{Kind: KindDepth, Offset: -1}
)

// Error is a decode failure with the position it was detected at.
type Error struct {
	Kind Kind
	// Offset is the byte offset into the source where the problem was
	// detected. -1 when unknown.
	Offset int
	// Unit is the offending byte or rune for KindIllegalUnit and
	// KindIllegalEscape.
	Unit    rune
	HasUnit bool
	Msg     string
	Err     error
}

// Error implements error interface
func (e *Error) Error() string {
	s := e.Kind.String()
	if e.HasUnit {
		s += " " + strconv.QuoteRune(e.Unit)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Offset >= 0 {
		s += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, offset int, msg string) *Error {
	return &Error{Kind: kind, Offset: offset, Msg: msg}
}

// EOF creates an end-of-input error.
func EOF(offset int) *Error {
	return &Error{Kind: KindEOF, Offset: offset}
}

// IllegalUnit creates an error carrying the offending unit.
func IllegalUnit(unit rune, offset int) *Error {
	return &Error{Kind: KindIllegalUnit, Offset: offset, Unit: unit, HasUnit: true}
}

// IllegalEscape creates an error for an unsupported escape letter.
func IllegalEscape(unit rune, offset int) *Error {
	return &Error{Kind: KindIllegalEscape, Offset: offset, Unit: unit, HasUnit: true}
}

// Syntax creates an error for a token the parser state does not permit.
func Syntax(offset int, msg string) *Error {
	return &Error{Kind: KindSyntax, Offset: offset, Msg: msg}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Rebase shifts the offset of err by base when it is an *Error with a known
// offset. Used to turn shard-local offsets into document offsets.
func Rebase(err error, base int) error {
	e, ok := err.(*Error)
	if !ok || e.Offset < 0 || base == 0 {
		return err
	}
	c := *e
	c.Offset += base
	return &c
}
