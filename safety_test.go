package shardjson

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroLengthInput(t *testing.T) {
	for _, cfg := range configurations() {
		t.Run(cfg.name, func(t *testing.T) {
			for _, input := range [][]byte{nil, {}, []byte(" \n\t\r")} {
				_, err := Decode(input, cfg.opts...)
				require.ErrorIs(t, err, ErrEOF)
			}
		})
	}
}

// Every strict prefix of an object is incomplete and must fail with a
// decode error, never a partial tree or a panic.
func TestTruncatedInput(t *testing.T) {
	doc := []byte(`{"name":"héllo \"世界\"","list":[1,-2.5e3,true,null],"nested":{"k":"\u00e9\ud83c\udf0d"}}`)
	require.True(t, Valid(doc))

	for _, cfg := range configurations() {
		t.Run(cfg.name, func(t *testing.T) {
			for i := 0; i < len(doc); i++ {
				_, err := Decode(doc[:i], cfg.opts...)
				var e *Error
				require.True(t, errors.As(err, &e), "prefix %q: %v", doc[:i], err)
				require.LessOrEqual(t, e.Offset, i)
			}
		})
	}
}

func TestInvalidUTF8(t *testing.T) {
	input := []byte("[\"a\xffb\"]")

	v, err := Decode(input, WithStrategy(StrategyBytes))
	require.NoError(t, err)
	s, _ := v.Index(0)
	require.Equal(t, "a\xffb", s.Str(), "bytes are copied through")

	for _, strategy := range []Strategy{StrategyRunes, StrategySharded} {
		v, err = Decode(input, WithStrategy(strategy))
		require.NoError(t, err)
		s, _ = v.Index(0)
		require.Equal(t, "a\uFFFDb", s.Str(), strategy.String())
	}

	_, err = Decode([]byte("[\xff]"), WithStrategy(StrategyRunes))
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, '\uFFFD', e.Unit)
	require.Equal(t, 1, e.Offset)
}

func TestEscapePolicy(t *testing.T) {
	input := []byte(`{"path":"C:\windows"}`)
	for _, strategy := range Strategies() {
		t.Run(strategy.String(), func(t *testing.T) {
			_, err := Decode(input, WithStrategy(strategy))
			require.ErrorIs(t, err, ErrIllegalEscape)

			v, err := Decode(input, WithStrategy(strategy), WithEscapePolicy(EscapePermissive))
			require.NoError(t, err)
			path, _ := v.Get("path")
			require.Equal(t, "C:windows", path.Str())
		})
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative shards", WithShards(-1)},
		{"negative workers", WithWorkers(-2)},
		{"negative shard size", WithMinShardSize(-1)},
		{"negative depth", WithMaxDepth(-1)},
		{"unknown strategy", WithStrategy(Strategy(42))},
		{"unknown token mode", WithTokenMode(TokenMode(9))},
		{"unknown escape policy", WithEscapePolicy(EscapePolicy(7))},
		{"unknown number mode", WithNumberMode(NumberMode(7))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString("1", tt.opt)
			require.ErrorIs(t, err, ErrInvalidOption)
			_, err = NewDecoder(strings.NewReader("1"), tt.opt)
			require.ErrorIs(t, err, ErrInvalidOption)
		})
	}

	_, err := NewDecoder(strings.NewReader("1"), WithStrategy(StrategySharded), WithTokenMode(TokenLazy))
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestParseNames(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	for _, m := range []TokenMode{TokenBorrowed, TokenOwned, TokenLazy} {
		got, err := ParseTokenMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := ParseStrategy("simd")
	require.ErrorIs(t, err, ErrInvalidOption)
	_, err = ParseTokenMode("")
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestDecoder(t *testing.T) {
	dec, err := NewDecoder(strings.NewReader(`{"id": 7, "tags": ["x"]}`), WithStrategy(StrategyBytes))
	require.NoError(t, err)

	var out struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, dec.Decode(&out))
	require.Equal(t, 7, out.ID)
	require.Equal(t, []string{"x"}, out.Tags)

	// the reader is drained, so there is nothing left to decode
	_, err = dec.Value()
	require.ErrorIs(t, err, ErrEOF)
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := DecodeString(`[1, 2]`, WithLogger(logger), WithStrategy(StrategyBytes))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "msg=decoded")
	require.Contains(t, buf.String(), "strategy=bytes")
	require.Contains(t, buf.String(), "tokens=5")

	buf.Reset()
	_, err = DecodeString(`[1, 2]`, WithLogger(nil))
	require.NoError(t, err)
	require.Empty(t, buf.String())
}

// TestRaceConditions decodes shared input from many goroutines; run with -race.
func TestRaceConditions(t *testing.T) {
	testData := []byte(createLargeArray(5000))
	want, err := Decode(testData)
	require.NoError(t, err)

	opts := []Option{WithStrategy(StrategySharded), WithShards(8), WithWorkers(4), WithMinShardSize(256)}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				v, err := Decode(testData, opts...)
				if err != nil {
					errs <- fmt.Errorf("goroutine %d: %w", id, err)
					return
				}
				if !want.Equal(v) {
					errs <- fmt.Errorf("goroutine %d: tree mismatch", id)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
