// Package token defines the lexical units produced by the tokenizers.
package token

import "strconv"

type Type uint8

const (
	None Type = iota
	ObjectBegin
	ObjectEnd
	ArrayBegin
	ArrayEnd
	Colon
	Comma
	String
	Number
	Bool
	Null
	EOF
)

var typeNames = [...]string{
	None:        "none",
	ObjectBegin: "'{'",
	ObjectEnd:   "'}'",
	ArrayBegin:  "'['",
	ArrayEnd:    "']'",
	Colon:       "':'",
	Comma:       "','",
	String:      "string",
	Number:      "number",
	Bool:        "boolean",
	Null:        "null",
	EOF:         "end of input",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Scalar reports whether tokens of this type carry a complete JSON value.
func (t Type) Scalar() bool {
	return t == String || t == Number || t == Bool || t == Null
}

// Token is an immutable lexical unit. Only the payload field matching Type
// is meaningful. Pos is the byte offset of the token's first unit and is
// ignored by Equal.
type Token struct {
	Type Type
	Str  string
	Num  float64
	Bool bool
	Pos  int
}

// Punct returns a payload-free token such as a bracket, colon, comma or EOF.
func Punct(t Type, pos int) Token {
	return Token{Type: t, Pos: pos}
}

func NewString(s string, pos int) Token {
	return Token{Type: String, Str: s, Pos: pos}
}

func NewNumber(f float64, pos int) Token {
	return Token{Type: Number, Num: f, Pos: pos}
}

func NewBool(b bool, pos int) Token {
	return Token{Type: Bool, Bool: b, Pos: pos}
}

func NewNull(pos int) Token {
	return Token{Type: Null, Pos: pos}
}

// Equal compares type and payload.
func (t Token) Equal(o Token) bool {
	if t.Type != o.Type {
		return false
	}
	switch t.Type {
	case String:
		return t.Str == o.Str
	case Number:
		return t.Num == o.Num
	case Bool:
		return t.Bool == o.Bool
	}
	return true
}

func (t Token) String() string {
	switch t.Type {
	case String:
		return strconv.Quote(t.Str)
	case Number:
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(t.Bool)
	}
	return t.Type.String()
}
