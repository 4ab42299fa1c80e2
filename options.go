package shardjson

import (
	"fmt"
	"log/slog"

	"github.com/biggeezerdevelopment/shardjson/internal/options"
	"github.com/biggeezerdevelopment/shardjson/internal/parser"
	"github.com/biggeezerdevelopment/shardjson/internal/scanner"
)

// Strategy selects how the input is tokenized.
type Strategy uint8

const (
	// StrategyRunes tokenizes Unicode code points on the calling goroutine.
	StrategyRunes Strategy = iota
	// StrategyBytes tokenizes single bytes on the calling goroutine. String
	// contents are copied through without UTF-8 validation.
	StrategyBytes
	// StrategySharded splits the input at safe boundaries and tokenizes the
	// shards concurrently.
	StrategySharded
)

var strategyNames = map[Strategy]string{
	StrategyRunes:   "runes",
	StrategyBytes:   "bytes",
	StrategySharded: "sharded",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{StrategyRunes, StrategyBytes, StrategySharded}
}

// ParseStrategy maps a strategy name back to its value.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidOption, name)
}

// TokenMode selects how tokens reach the tree builder.
type TokenMode uint8

const (
	// TokenBorrowed tokenizes everything first and reads the token slice in
	// place.
	TokenBorrowed TokenMode = iota
	// TokenOwned tokenizes everything first and moves each token out of the
	// slice as it is consumed.
	TokenOwned
	// TokenLazy tokenizes on demand while the tree is built. Not available
	// with StrategySharded.
	TokenLazy
)

var tokenModeNames = map[TokenMode]string{
	TokenBorrowed: "borrowed",
	TokenOwned:    "owned",
	TokenLazy:     "lazy",
}

func (m TokenMode) String() string {
	if name, ok := tokenModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("tokenmode(%d)", uint8(m))
}

// ParseTokenMode maps a token mode name back to its value.
func ParseTokenMode(name string) (TokenMode, error) {
	for m, n := range tokenModeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown token mode %q", ErrInvalidOption, name)
}

// EscapePolicy decides how unknown string escapes are handled.
type EscapePolicy = scanner.EscapePolicy

const (
	EscapeStrict     = scanner.EscapeStrict
	EscapePermissive = scanner.EscapePermissive
)

// NumberMode decides how number text becomes a float64.
type NumberMode = scanner.NumberMode

const (
	NumberAccumulate = scanner.NumberAccumulate
	NumberPrecise    = scanner.NumberPrecise
)

// DefaultMinShardSize is the smallest shard the sharded strategy will plan.
const DefaultMinShardSize = 32 << 10

// DefaultMaxDepth is the nesting limit applied unless WithMaxDepth is used.
const DefaultMaxDepth = parser.DefaultMaxDepth

type config struct {
	strategy     Strategy
	mode         TokenMode
	lexical      scanner.Config
	shards       int
	workers      int
	minShardSize int
	maxDepth     int
	logger       *slog.Logger
}

func defaultConfig() *config {
	return &config{
		strategy:     StrategyRunes,
		mode:         TokenBorrowed,
		minShardSize: DefaultMinShardSize,
		maxDepth:     DefaultMaxDepth,
		logger:       slog.New(slog.DiscardHandler),
	}
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.mode == TokenLazy && cfg.strategy == StrategySharded {
		return nil, fmt.Errorf("%w: lazy tokens cannot be combined with the sharded strategy", ErrInvalidOption)
	}
	return cfg, nil
}

// Option configures decoding.
type Option = options.Option[*config]

// WithStrategy selects the tokenizer. The default is StrategyRunes.
func WithStrategy(s Strategy) Option {
	return options.New(func(c *config) error {
		if _, ok := strategyNames[s]; !ok {
			return fmt.Errorf("%w: %v", ErrInvalidOption, s)
		}
		c.strategy = s
		return nil
	})
}

// WithTokenMode selects how tokens are handed to the builder. The default is
// TokenBorrowed.
func WithTokenMode(m TokenMode) Option {
	return options.New(func(c *config) error {
		if _, ok := tokenModeNames[m]; !ok {
			return fmt.Errorf("%w: %v", ErrInvalidOption, m)
		}
		c.mode = m
		return nil
	})
}

// WithShards sets the number of shards for StrategySharded. 0 means
// GOMAXPROCS. The effective count is further limited by WithMinShardSize.
func WithShards(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: shards must be >= 0, got %d", ErrInvalidOption, n)
		}
		c.shards = n
		return nil
	})
}

// WithWorkers bounds the goroutines tokenizing shards. 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidOption, n)
		}
		c.workers = n
		return nil
	})
}

// WithMinShardSize sets the smallest shard, in bytes, worth tokenizing on
// its own. 0 lets the shard count alone decide.
func WithMinShardSize(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: minimum shard size must be >= 0, got %d", ErrInvalidOption, n)
		}
		c.minShardSize = n
		return nil
	})
}

func WithEscapePolicy(p EscapePolicy) Option {
	return options.New(func(c *config) error {
		if p != EscapeStrict && p != EscapePermissive {
			return fmt.Errorf("%w: escape policy %d", ErrInvalidOption, p)
		}
		c.lexical.Escapes = p
		return nil
	})
}

func WithNumberMode(m NumberMode) Option {
	return options.New(func(c *config) error {
		if m != NumberAccumulate && m != NumberPrecise {
			return fmt.Errorf("%w: number mode %d", ErrInvalidOption, m)
		}
		c.lexical.Numbers = m
		return nil
	})
}

// WithMaxDepth limits array and object nesting. 0 disables the limit.
func WithMaxDepth(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: max depth must be >= 0, got %d", ErrInvalidOption, n)
		}
		c.maxDepth = n
		return nil
	})
}

// WithLogger sets the logger for debug output. nil restores the default,
// which discards everything.
func WithLogger(l *slog.Logger) Option {
	return options.NoError(func(c *config) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.logger = l
	})
}
