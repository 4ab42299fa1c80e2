package scanner

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"

	"github.com/biggeezerdevelopment/shardjson/internal/jsonerr"
	"github.com/biggeezerdevelopment/shardjson/internal/token"
)

// ShardConfig controls how the sharded tokenizer fans out.
type ShardConfig struct {
	// Shards is the number of shards requested. <= 0 means GOMAXPROCS.
	Shards int
	// Workers bounds concurrent shard tokenizers. <= 0 means GOMAXPROCS.
	Workers int
	// MinShardSize caps the shard count at len(src)/MinShardSize. 0 disables.
	MinShardSize int
	// Logger receives the shard plan at debug level. nil disables logging.
	Logger *slog.Logger
}

// Sharded tokenizes disjoint shards of the source concurrently and joins the
// per-shard token sequences in shard order.
type Sharded struct {
	src    []byte
	cfg    Config
	shards ShardConfig

	tokens []token.Token
	pos    int
	read   bool
}

// shardSlot is written by exactly one worker. The pad keeps neighbouring
// slots on separate cache lines.
type shardSlot struct {
	tokens []token.Token
	err    error
	_      cpu.CacheLinePad
}

func NewSharded(src []byte, cfg Config, sc ShardConfig) *Sharded {
	return &Sharded{src: src, cfg: cfg, shards: sc}
}

// ShardCount is the number of shards Plan will aim for. It never exceeds
// the number of legal cuts in the input plus one, so inputs too short to
// split are tokenized as a single shard.
func (t *Sharded) ShardCount() int {
	n := t.shards.Shards
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if t.shards.MinShardSize > 0 {
		n = min(n, len(t.src)/t.shards.MinShardSize)
	}
	n = min(n, len(t.src))
	if n > 1 {
		n = min(n, countCuts(t.src, n-1)+1)
	}
	return max(n, 1)
}

// Plan computes the shard ranges.
func (t *Sharded) Plan() ([]Range, error) {
	return Split(t.src, t.ShardCount())
}

func (t *Sharded) ReadTokens() ([]token.Token, error) {
	ranges, err := t.Plan()
	if err != nil {
		return nil, err
	}
	if len(ranges) == 1 {
		return NewRunes(t.src, t.cfg).ReadTokens()
	}

	workers := t.shards.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if t.shards.Logger != nil {
		t.shards.Logger.Debug("sharded tokenize",
			"bytes", len(t.src), "shards", len(ranges), "workers", workers)
	}

	slots := make([]shardSlot, len(ranges))
	// lowest failed shard index; shards after it are skipped, shards before
	// it always run so the reported error is the first in document order
	var failed atomic.Int64
	failed.Store(int64(len(ranges)))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range ranges {
		g.Go(func() error {
			if int64(i) > failed.Load() {
				return nil
			}
			tokens, err := NewRunes(t.src[r.Start:r.End], t.cfg).ReadTokens()
			if err != nil {
				slots[i].err = jsonerr.Rebase(err, r.Start)
				for {
					cur := failed.Load()
					if int64(i) >= cur || failed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return slots[i].err
			}
			for j := range tokens {
				tokens[j].Pos += r.Start
			}
			slots[i].tokens = tokens
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		first := err
		for i := range slots {
			if slots[i].err != nil {
				first = slots[i].err
				break
			}
		}
		for i := range slots {
			PutTokenSlice(slots[i].tokens)
		}
		return nil, first
	}

	total := 0
	for i := range slots {
		total += len(slots[i].tokens)
	}
	out := getTokenSlice(total)
	for i := range slots {
		out = append(out, slots[i].tokens...)
		PutTokenSlice(slots[i].tokens)
	}
	return out, nil
}

// ReadToken materializes the whole sequence on first use and then yields it
// one token at a time.
func (t *Sharded) ReadToken() (token.Token, error) {
	if !t.read {
		tokens, err := t.ReadTokens()
		if err != nil {
			return token.Token{}, err
		}
		t.tokens, t.read = tokens, true
	}
	if t.pos >= len(t.tokens) {
		return token.Punct(token.EOF, len(t.src)), nil
	}
	tok := t.tokens[t.pos]
	t.tokens[t.pos] = token.Token{}
	t.pos++
	return tok, nil
}
