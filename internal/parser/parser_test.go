package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
	"github.com/biggeezerdevelopment/shardjson/internal/scanner"
	"github.com/biggeezerdevelopment/shardjson/internal/stream"
	"github.com/biggeezerdevelopment/shardjson/internal/value"
)

type streamCase struct {
	name string
	new  func(t *testing.T, src []byte) stream.Stream
}

// materialized streams see lexical errors before building starts, the lazy
// stream sees them when the builder reaches them
var streamCases = []streamCase{
	{"view", func(t *testing.T, src []byte) stream.Stream {
		tokens, err := scanner.NewBytes(src, scanner.Config{}).ReadTokens()
		require.NoError(t, err)
		return stream.NewView(tokens, len(src))
	}},
	{"buffer", func(t *testing.T, src []byte) stream.Stream {
		tokens, err := scanner.NewRunes(src, scanner.Config{}).ReadTokens()
		require.NoError(t, err)
		return stream.NewBuffer(tokens, len(src))
	}},
	{"lazy", func(t *testing.T, src []byte) stream.Stream {
		return stream.NewLazy(scanner.NewRunes(src, scanner.Config{}))
	}},
}

func parse(t *testing.T, sc streamCase, input string) (value.Value, error) {
	t.Helper()
	return New(sc.new(t, []byte(input)), DefaultMaxDepth).Parse()
}

func object(kv ...any) value.Value {
	o := value.NewObject(0)
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(value.Value))
	}
	return value.ObjectOf(o)
}

func TestBuilder_Values(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected value.Value
	}{
		{"null", "null", value.Null()},
		{"true", "true", value.Bool(true)},
		{"false", " false ", value.Bool(false)},
		{"number", "42", value.Number(42)},
		{"negative exponent", "-1.5e3", value.Number(-1500)},
		{"string", `"hello"`, value.String("hello")},
		{"empty object", "{}", object()},
		{"empty array", "[ ]", value.Array()},
		{"simple object", `{"key":"value"}`, object("key", value.String("value"))},
		{"simple array", `[1,2,3]`, value.Array(value.Number(1), value.Number(2), value.Number(3))},
		{"nested", `{"a": [1, {"b": null}], "c": {"d": [[]]}}`, object(
			"a", value.Array(value.Number(1), object("b", value.Null())),
			"c", object("d", value.Array(value.Array())),
		)},
		{"duplicate keys", `{"a":1,"a":2}`, object("a", value.Number(2))},
	}

	for _, sc := range streamCases {
		for _, tt := range tests {
			t.Run(sc.name+"/"+tt.name, func(t *testing.T) {
				v, err := parse(t, sc, tt.input)
				require.NoError(t, err)
				require.True(t, tt.expected.Equal(v), "want %v, got %v", tt.expected.Interface(), v.Interface())
			})
		}
	}
}

func TestBuilder_KeyOrder(t *testing.T) {
	for _, sc := range streamCases {
		t.Run(sc.name, func(t *testing.T) {
			v, err := parse(t, sc, `{"z":1,"a":2,"m":3,"a":4}`)
			require.NoError(t, err)
			require.Equal(t, []string{"z", "a", "m"}, v.Object().Keys())
			a, _ := v.Get("a")
			require.Equal(t, 4.0, a.Float())
		})
	}
}

func TestBuilder_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   jsonerr.Kind
		offset int
	}{
		{"empty input", "", jsonerr.KindEOF, 0},
		{"whitespace only", "   ", jsonerr.KindEOF, 3},
		{"lone close", "]", jsonerr.KindSyntax, 0},
		{"lone colon", ":", jsonerr.KindSyntax, 0},
		{"trailing comma in array", "[1,]", jsonerr.KindSyntax, 3},
		{"trailing comma in object", `{"a":1,}`, jsonerr.KindSyntax, 7},
		{"missing comma", "[1 2]", jsonerr.KindSyntax, 3},
		{"leading comma", "[,1]", jsonerr.KindSyntax, 1},
		{"double comma", "[1,,2]", jsonerr.KindSyntax, 3},
		{"non-string key", `{1:2}`, jsonerr.KindSyntax, 1},
		{"missing colon", `{"a" 1}`, jsonerr.KindSyntax, 5},
		{"comma instead of colon", `{"a",1}`, jsonerr.KindSyntax, 4},
		{"mismatched close", `[1}`, jsonerr.KindSyntax, 2},
		{"trailing value", `{} []`, jsonerr.KindSyntax, 3},
		{"trailing scalar", `1 2`, jsonerr.KindSyntax, 2},
		{"truncated object", `{"a":`, jsonerr.KindEOF, 5},
		{"truncated array", `[1, 2`, jsonerr.KindEOF, 5},
		{"open brace only", `{`, jsonerr.KindEOF, 1},
		{"key without value", `{"a"`, jsonerr.KindEOF, 4},
	}

	for _, sc := range streamCases {
		for _, tt := range tests {
			t.Run(sc.name+"/"+tt.name, func(t *testing.T) {
				_, err := parse(t, sc, tt.input)
				var e *jsonerr.Error
				require.ErrorAs(t, err, &e)
				require.Equal(t, tt.kind, e.Kind, err.Error())
				require.Equal(t, tt.offset, e.Offset, err.Error())
			})
		}
	}
}

func TestBuilder_LazyLexicalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  jsonerr.Kind
	}{
		{"inside array", `[1, @]`, jsonerr.KindIllegalUnit},
		{"after value", `{"a":1} @`, jsonerr.KindIllegalUnit},
		{"unterminated string", `["abc`, jsonerr.KindEOF},
		{"bad literal", `[tru]`, jsonerr.KindIllegalToken},
	}

	lazy := streamCases[2]
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, lazy, tt.input)
			require.Error(t, err)
			require.Equal(t, tt.kind, jsonerr.KindOf(err), err.Error())
		})
	}
}

func TestBuilder_MaxDepth(t *testing.T) {
	nested := func(n int) []byte {
		return []byte(strings.Repeat("[", n) + strings.Repeat("]", n))
	}

	for _, sc := range streamCases {
		t.Run(sc.name, func(t *testing.T) {
			_, err := New(sc.new(t, nested(10)), 10).Parse()
			require.NoError(t, err)

			_, err = New(sc.new(t, nested(11)), 10).Parse()
			require.ErrorIs(t, err, jsonerr.ErrDepth)
			var e *jsonerr.Error
			require.ErrorAs(t, err, &e)
			require.Equal(t, 10, e.Offset)

			_, err = New(sc.new(t, nested(5000)), 0).Parse()
			require.NoError(t, err, "0 disables the limit")
		})
	}
}

func TestBuilder_BuildValueLeavesRest(t *testing.T) {
	tokens, err := scanner.NewBytes([]byte(`[1] 2`), scanner.Config{}).ReadTokens()
	require.NoError(t, err)
	s := stream.NewView(tokens, 5)

	b := New(s, 0)
	v, err := b.BuildValue()
	require.NoError(t, err)
	require.True(t, value.Array(value.Number(1)).Equal(v))
	require.True(t, s.HasNext())

	v, err = b.BuildValue()
	require.NoError(t, err)
	require.Equal(t, 2.0, v.Float())
	require.False(t, s.HasNext())
}
