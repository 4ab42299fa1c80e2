// Package shardjson decodes JSON text into an in-memory tree.
//
// Decoding runs in two passes: the input is tokenized, then a recursive
// descent builder turns the tokens into a Value. The tokenizer can work on
// bytes, on code points, or on shards of the input in parallel; all three
// produce the same tree for well-formed input.
package shardjson

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
	"github.com/biggeezerdevelopment/shardjson/internal/parser"
	"github.com/biggeezerdevelopment/shardjson/internal/scanner"
	"github.com/biggeezerdevelopment/shardjson/internal/stream"
	"github.com/biggeezerdevelopment/shardjson/internal/value"
)

type (
	Value  = value.Value
	Object = value.Object
	Kind   = value.Kind

	// Error is returned for every decode failure. Use errors.Is with the
	// Err* sentinels to test its kind.
	Error     = jsonerr.Error
	ErrorKind = jsonerr.Kind
)

const (
	KindNull   = value.KindNull
	KindBool   = value.KindBool
	KindNumber = value.KindNumber
	KindString = value.KindString
	KindArray  = value.KindArray
	KindObject = value.KindObject
)

var (
	ErrEOF           = jsonerr.ErrEOF
	ErrIllegalUnit   = jsonerr.ErrIllegalUnit
	ErrIllegalToken  = jsonerr.ErrIllegalToken
	ErrIllegalEscape = jsonerr.ErrIllegalEscape
	ErrSyntax        = jsonerr.ErrSyntax
	ErrPartition     = jsonerr.ErrPartition
	ErrDepth         = jsonerr.ErrDepth

	ErrInvalidOption = errors.New("invalid option")
)

// Decode parses data into a tree.
func Decode(data []byte, opts ...Option) (Value, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return Value{}, err
	}
	return decode(data, cfg)
}

func DecodeString(s string, opts ...Option) (Value, error) {
	return Decode([]byte(s), opts...)
}

// Unmarshal parses data and stores the result in the value pointed to by v.
func Unmarshal(data []byte, v any, opts ...Option) error {
	tree, err := Decode(data, opts...)
	if err != nil {
		return err
	}
	return Assign(tree, v)
}

// Valid reports whether data is a single well-formed JSON value.
func Valid(data []byte, opts ...Option) bool {
	_, err := Decode(data, opts...)
	return err == nil
}

// Decoder reads a whole document from an io.Reader and decodes it.
type Decoder struct {
	r   io.Reader
	cfg *config
}

// NewDecoder returns a decoder reading from r. The reader is consumed to EOF
// on the first call to Decode or Value; there is no incremental decoding.
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r, cfg: cfg}, nil
}

// Value reads the remaining input and returns its tree.
func (d *Decoder) Value() (Value, error) {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return Value{}, err
	}
	return decode(data, d.cfg)
}

// Decode reads the remaining input and stores it in the value pointed to by v.
func (d *Decoder) Decode(v any) error {
	tree, err := d.Value()
	if err != nil {
		return err
	}
	return Assign(tree, v)
}

func tokenizer(data []byte, cfg *config) scanner.Tokenizer {
	switch cfg.strategy {
	case StrategyBytes:
		return scanner.NewBytes(data, cfg.lexical)
	case StrategySharded:
		return scanner.NewSharded(data, cfg.lexical, scanner.ShardConfig{
			Shards:       cfg.shards,
			Workers:      cfg.workers,
			MinShardSize: cfg.minShardSize,
			Logger:       cfg.logger,
		})
	}
	return scanner.NewRunes(data, cfg.lexical)
}

func decode(data []byte, cfg *config) (Value, error) {
	start := time.Now()
	tz := tokenizer(data, cfg)

	var s stream.Stream
	ntokens := -1
	if cfg.mode == TokenLazy {
		s = stream.NewLazy(tz)
	} else {
		tokens, err := tz.ReadTokens()
		if err != nil {
			return Value{}, err
		}
		defer scanner.PutTokenSlice(tokens)
		ntokens = len(tokens)
		if cfg.mode == TokenOwned {
			s = stream.NewBuffer(tokens, len(data))
		} else {
			s = stream.NewView(tokens, len(data))
		}
	}

	v, err := parser.New(s, cfg.maxDepth).Parse()
	if err != nil {
		return Value{}, err
	}
	if cfg.logger.Enabled(context.Background(), slog.LevelDebug) {
		cfg.logger.Debug("decoded",
			"strategy", cfg.strategy,
			"mode", cfg.mode,
			"bytes", len(data),
			"tokens", ntokens,
			"elapsed", time.Since(start))
	}
	return v, nil
}
