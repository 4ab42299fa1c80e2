package scanner

import (
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/biggeezerdevelopment/shardjson/internal/cursor"
	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
	"github.com/biggeezerdevelopment/shardjson/internal/token"
)

// EscapePolicy decides what happens to an escape sequence JSON does not
// define. Every tokenizer applies the same policy.
type EscapePolicy uint8

const (
	// EscapeStrict rejects unknown escapes with a KindIllegalEscape error.
	EscapeStrict EscapePolicy = iota
	// EscapePermissive keeps the escaped unit literally.
	EscapePermissive
)

func (p EscapePolicy) String() string {
	if p == EscapePermissive {
		return "permissive"
	}
	return "strict"
}

// NumberMode selects how scanned digits become a float64.
type NumberMode uint8

const (
	// NumberAccumulate builds the value digit by digit while scanning.
	NumberAccumulate NumberMode = iota
	// NumberPrecise converts the scanned text with a correctly rounded parser.
	NumberPrecise
)

func (m NumberMode) String() string {
	if m == NumberPrecise {
		return "precise"
	}
	return "accumulate"
}

// Config holds the lexical options shared by all tokenizers.
type Config struct {
	Escapes EscapePolicy
	Numbers NumberMode
}

// Tokenizer produces tokens from a source document.
type Tokenizer interface {
	// ReadToken returns the next token, or a token.EOF token once the input
	// is exhausted.
	ReadToken() (token.Token, error)
	// ReadTokens returns every token up to end of input, excluding the EOF
	// token. Release the slice with PutTokenSlice when done.
	ReadTokens() ([]token.Token, error)
}

// Scanner is the tokenizer engine, generic over the cursor granularity.
type Scanner[U cursor.Unit] struct {
	cur  cursor.Cursor[U]
	cfg  Config
	wide bool // units are runes and must be UTF-8 encoded into strings
	size int  // source length, for slice estimates

	str []byte
	num []byte
}

// NewBytes returns a byte-oriented tokenizer. Non-ASCII bytes are only
// accepted inside string literals, where they are copied through without
// UTF-8 validation.
func NewBytes(src []byte, cfg Config) *Scanner[byte] {
	return &Scanner[byte]{cur: cursor.NewBytes(src), cfg: cfg, size: len(src)}
}

// NewRunes returns a code point oriented tokenizer.
func NewRunes(src []byte, cfg Config) *Scanner[rune] {
	return &Scanner[rune]{cur: cursor.NewRunes(src), cfg: cfg, wide: true, size: len(src)}
}

func (s *Scanner[U]) ReadTokens() ([]token.Token, error) {
	tokens := getTokenSlice(s.size / 4)
	for {
		tok, err := s.ReadToken()
		if err != nil {
			PutTokenSlice(tokens)
			return nil, err
		}
		if tok.Type == token.EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (s *Scanner[U]) ReadToken() (token.Token, error) {
	u, err := s.cur.Peek()
	for err == nil && isWhitespace(u) {
		s.cur.Next()
		u, err = s.cur.Peek()
	}
	pos := s.cur.Offset()
	if err != nil {
		// Only end of input can fail a peek.
		return token.Punct(token.EOF, pos), nil
	}

	switch u {
	case '{':
		return s.punct(token.ObjectBegin, pos)
	case '}':
		return s.punct(token.ObjectEnd, pos)
	case '[':
		return s.punct(token.ArrayBegin, pos)
	case ']':
		return s.punct(token.ArrayEnd, pos)
	case ':':
		return s.punct(token.Colon, pos)
	case ',':
		return s.punct(token.Comma, pos)
	case '"':
		return s.readString(pos)
	case 'n':
		if err := s.match("null"); err != nil {
			return token.Token{}, err
		}
		return token.NewNull(pos), nil
	case 't':
		if err := s.match("true"); err != nil {
			return token.Token{}, err
		}
		return token.NewBool(true, pos), nil
	case 'f':
		if err := s.match("false"); err != nil {
			return token.Token{}, err
		}
		return token.NewBool(false, pos), nil
	}
	if u == '-' || isDigit(u) {
		return s.readNumber(pos)
	}
	return token.Token{}, jsonerr.IllegalUnit(rune(u), pos)
}

func (s *Scanner[U]) punct(t token.Type, pos int) (token.Token, error) {
	s.cur.Next()
	return token.Punct(t, pos), nil
}

func (s *Scanner[U]) appendUnit(b []byte, u U) []byte {
	if s.wide {
		return utf8.AppendRune(b, rune(u))
	}
	return append(b, byte(u))
}

func (s *Scanner[U]) readString(pos int) (token.Token, error) {
	s.cur.Next() // opening quote
	s.str = s.str[:0]
	for {
		u, err := s.cur.Next()
		if err != nil {
			return token.Token{}, err
		}
		switch u {
		case '"':
			return token.NewString(string(s.str), pos), nil
		case '\\':
			if err := s.readEscape(); err != nil {
				return token.Token{}, err
			}
		default:
			s.str = s.appendUnit(s.str, u)
		}
	}
}

func (s *Scanner[U]) readEscape() error {
	off := s.cur.Offset()
	u, err := s.cur.Next()
	if err != nil {
		return err
	}
	return s.escape(u, off)
}

func (s *Scanner[U]) escape(u U, off int) error {
	switch u {
	case '"', '\\', '/':
		s.str = append(s.str, byte(u))
	case 'b':
		s.str = append(s.str, '\b')
	case 'f':
		s.str = append(s.str, '\f')
	case 'n':
		s.str = append(s.str, '\n')
	case 'r':
		s.str = append(s.str, '\r')
	case 't':
		s.str = append(s.str, '\t')
	case 'u':
		return s.readUnicode()
	default:
		if s.cfg.Escapes != EscapePermissive {
			return jsonerr.IllegalEscape(rune(u), off)
		}
		s.str = s.appendUnit(s.str, u)
	}
	return nil
}

// readUnicode decodes the XXXX of a \uXXXX escape, joining UTF-16 surrogate
// pairs. Unpaired surrogates become U+FFFD.
func (s *Scanner[U]) readUnicode() error {
	r, err := s.hex4()
	if err != nil {
		return err
	}
	for {
		if !utf16.IsSurrogate(r) {
			s.str = utf8.AppendRune(s.str, r)
			return nil
		}
		if r >= 0xdc00 {
			s.str = utf8.AppendRune(s.str, utf8.RuneError)
			return nil
		}

		if u, err := s.cur.Peek(); err != nil || u != '\\' {
			s.str = utf8.AppendRune(s.str, utf8.RuneError)
			return nil
		}
		s.cur.Next()
		off := s.cur.Offset()
		u, err := s.cur.Next()
		if err != nil {
			return err
		}
		if u != 'u' {
			s.str = utf8.AppendRune(s.str, utf8.RuneError)
			return s.escape(u, off)
		}
		r2, err := s.hex4()
		if err != nil {
			return err
		}
		if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
			s.str = utf8.AppendRune(s.str, dec)
			return nil
		}
		// r was unpaired; r2 may itself open a pair
		s.str = utf8.AppendRune(s.str, utf8.RuneError)
		r = r2
	}
}

func (s *Scanner[U]) hex4() (rune, error) {
	var r rune
	for i := 0; i < 4; i++ {
		off := s.cur.Offset()
		u, err := s.cur.Next()
		if err != nil {
			return 0, err
		}
		var d rune
		switch {
		case u >= '0' && u <= '9':
			d = rune(u - '0')
		case u >= 'a' && u <= 'f':
			d = rune(u-'a') + 10
		case u >= 'A' && u <= 'F':
			d = rune(u-'A') + 10
		default:
			return 0, jsonerr.IllegalEscape(rune(u), off)
		}
		r = r<<4 | d
	}
	return r, nil
}

// match consumes lit unit by unit. Any mismatch, including running out of
// input, is an illegal token.
func (s *Scanner[U]) match(lit string) error {
	start := s.cur.Offset()
	for i := 0; i < len(lit); i++ {
		u, err := s.cur.Next()
		if err != nil || u != U(lit[i]) {
			return jsonerr.New(jsonerr.KindIllegalToken, start, "expected "+lit)
		}
	}
	return nil
}

const (
	numInteger = iota
	numFraction
	numExponent
)

// maxExponent bounds the accumulated exponent; anything larger already
// saturates math.Pow10 to 0 or +Inf.
const maxExponent = 1 << 20

// readNumber scans sign, integer, fraction and exponent parts. The value is
// accumulated while scanning: value = value*10 + d for the integer part and
// value += d*rate, rate *= 0.1 for the fraction. NumberPrecise re-parses the
// scanned text instead.
func (s *Scanner[U]) readNumber(pos int) (token.Token, error) {
	var (
		value   = 0.0
		sign    = 1.0
		rate    = 0.1
		state   = numInteger
		expSign = 1
		expVal  = 0
	)
	precise := s.cfg.Numbers == NumberPrecise
	s.num = s.num[:0]

	u, err := s.cur.Peek()
	if err == nil && u == '-' {
		sign = -1
		s.consumeNumber(u, precise)
		u, err = s.cur.Peek()
	}

scan:
	for err == nil {
		switch {
		case isDigit(u):
			d := int(u - '0')
			switch state {
			case numInteger:
				value = value*10 + float64(d)
			case numFraction:
				value += float64(d) * rate
				rate *= 0.1
			case numExponent:
				if expVal < maxExponent {
					expVal = expVal*10 + d
				}
			}
		case u == '.':
			if state != numInteger {
				return token.Token{}, jsonerr.New(jsonerr.KindIllegalToken, s.cur.Offset(), "misplaced '.' in number")
			}
			state = numFraction
		case u == 'e' || u == 'E':
			if state == numExponent {
				return token.Token{}, jsonerr.New(jsonerr.KindIllegalToken, s.cur.Offset(), "repeated exponent in number")
			}
			state = numExponent
			s.consumeNumber(u, precise)
			u, err = s.cur.Peek()
			if err != nil || (u != '+' && u != '-') {
				// no explicit sign: re-dispatch the peeked unit
				continue
			}
			if u == '-' {
				expSign = -1
			}
		default:
			break scan
		}
		s.consumeNumber(u, precise)
		u, err = s.cur.Peek()
	}

	// a zero mantissa stays a signed zero whatever the exponent; scaling it
	// by an overflowing power of ten would give NaN
	result := sign * value
	if value != 0 {
		result *= math.Pow10(expSign * expVal)
	}
	if precise {
		f, perr := strconv.ParseFloat(string(s.num), 64)
		if perr == nil || isRangeErr(perr) {
			result = f
		}
	}
	return token.NewNumber(result, pos), nil
}

func (s *Scanner[U]) consumeNumber(u U, precise bool) {
	s.cur.Next()
	if precise {
		s.num = append(s.num, byte(u))
	}
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func isDigit[U cursor.Unit](u U) bool {
	return u >= '0' && u <= '9'
}

func isWhitespace[U cursor.Unit](u U) bool {
	return u == ' ' || u == '\t' || u == '\n' || u == '\r'
}
