package scanner

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
)

func generateDocument(items int) []byte {
	var b strings.Builder
	b.WriteString("[\n")
	for i := 0; i < items; i++ {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, `  {"id": %d, "name": "user-%d héllo 世界", "score": %d.%d, "ok": %t, `+
			`"tags": ["a\"b", "\u00e9", "c:\\d"], "none": null, "exp": -%de-3}`,
			i, i, i*7, i%10, i%2 == 0, i)
	}
	b.WriteString("\n]")
	return []byte(b.String())
}

func TestSharded_MatchesSequential(t *testing.T) {
	src := generateDocument(300)
	want, err := NewRunes(src, Config{}).ReadTokens()
	require.NoError(t, err)

	for n := 2; n <= 8; n++ {
		t.Run(fmt.Sprintf("shards_%d", n), func(t *testing.T) {
			s := NewSharded(src, Config{}, ShardConfig{Shards: n, Workers: 3})
			ranges, err := s.Plan()
			require.NoError(t, err)
			require.Len(t, ranges, n)

			got, err := s.ReadTokens()
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestSharded_FirstErrorInDocumentOrder(t *testing.T) {
	items := make([]string, 60)
	for i := range items {
		items[i] = fmt.Sprintf(`{"k%d": [%d, "v%d"]}`, i, i, i)
	}

	tests := []struct {
		name   string
		mutate func([]string)
	}{
		{"single illegal unit", func(s []string) { s[35] = "@" }},
		{"two errors in different shards", func(s []string) {
			s[20] = `"\q"`
			s[50] = "@"
		}},
		{"error in the last shard only", func(s []string) { s[59] = "tru" }},
		{"unterminated string", func(s []string) { s[59] = `"open` }},
	}

	for _, tt := range tests {
		doc := slices.Clone(items)
		tt.mutate(doc)
		src := []byte("[" + strings.Join(doc, ", ") + "]")

		_, want := NewRunes(src, Config{}).ReadTokens()
		require.Error(t, want)

		for _, n := range []int{2, 4, 8} {
			t.Run(fmt.Sprintf("%s/shards_%d", tt.name, n), func(t *testing.T) {
				tokens, err := NewSharded(src, Config{}, ShardConfig{Shards: n, Workers: n}).ReadTokens()
				require.Nil(t, tokens)
				require.Error(t, err)
				require.Equal(t, jsonerr.KindOf(want), jsonerr.KindOf(err))
				require.Equal(t, want.Error(), err.Error())
			})
		}
	}
}

func TestSharded_PartitionError(t *testing.T) {
	src := []byte(`["` + strings.Repeat("x", 100) + `"]`)
	s := NewSharded(src, Config{}, ShardConfig{Shards: 4})

	tokens, err := s.ReadTokens()
	require.Nil(t, tokens)
	require.ErrorIs(t, err, jsonerr.ErrPartition)

	_, err = s.ReadToken()
	require.ErrorIs(t, err, jsonerr.ErrPartition)
}

func TestSharded_ShardCount(t *testing.T) {
	src := bytes.Repeat([]byte(" "), 100)
	tests := []struct {
		name     string
		cfg      ShardConfig
		expected int
	}{
		{"explicit", ShardConfig{Shards: 5}, 5},
		{"default", ShardConfig{}, runtime.GOMAXPROCS(0)},
		{"clamped by minimum shard size", ShardConfig{Shards: 8, MinShardSize: 32}, 3},
		{"input smaller than minimum", ShardConfig{Shards: 8, MinShardSize: 512}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, NewSharded(src, Config{}, tt.cfg).ShardCount())
		})
	}
}

// Inputs with fewer legal cuts than requested shards are planned with fewer
// shards instead of failing.
func TestSharded_ShortInputs(t *testing.T) {
	tests := []struct {
		input  string
		shards int
	}{
		{"42", 1},
		{`""`, 1},
		{`"only a string literal"`, 1},
		{"true", 1},
		{"[1]", 3},
		{" 7", 2},
		{"[1,2,3]", 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			src := []byte(tt.input)
			s := NewSharded(src, Config{}, ShardConfig{Shards: 4, MinShardSize: 0})
			require.Equal(t, tt.shards, s.ShardCount())

			want, err := NewRunes(src, Config{}).ReadTokens()
			require.NoError(t, err)
			got, err := s.ReadTokens()
			require.NoError(t, err)
			requireTokens(t, want, got)
		})
	}
}

func TestSharded_DebugLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	src := generateDocument(20)
	tokens, err := NewSharded(src, Config{}, ShardConfig{Shards: 4, Workers: 2, Logger: logger}).ReadTokens()
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	PutTokenSlice(tokens)

	out := buf.String()
	require.Contains(t, out, "sharded tokenize")
	require.Contains(t, out, "shards=4")
	require.Contains(t, out, "workers=2")
}
