package scanner

import (
	"sync"

	"github.com/biggeezerdevelopment/shardjson/internal/token"
)

// maxPooledTokens keeps very large slices out of the pool.
const maxPooledTokens = 1 << 16

var tokenPool = sync.Pool{
	New: func() any {
		s := make([]token.Token, 0, 64)
		return &s
	},
}

// getTokenSlice returns an empty slice with room for at least hint tokens.
func getTokenSlice(hint int) []token.Token {
	ptr := tokenPool.Get().(*[]token.Token)
	tokens := (*ptr)[:0]
	if cap(tokens) < hint {
		tokens = make([]token.Token, 0, min(hint, maxPooledTokens))
	}
	return tokens
}

// PutTokenSlice returns a slice obtained from ReadTokens to the pool. The
// slots are cleared so pooled slices do not pin string payloads.
func PutTokenSlice(tokens []token.Token) {
	if tokens == nil || cap(tokens) > maxPooledTokens {
		return
	}
	clear(tokens[:cap(tokens)])
	tokens = tokens[:0]
	tokenPool.Put(&tokens)
}
