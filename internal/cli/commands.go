package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/biggeezerdevelopment/shardjson"
	"github.com/biggeezerdevelopment/shardjson/internal/scanner"
	"github.com/biggeezerdevelopment/shardjson/internal/value"
)

// DecodeCmd decodes one document with the configured settings.
type DecodeCmd struct {
	File string `arg:"" optional:"" default:"-" help:"JSON document to read, or - for stdin. .zst, .gz and .lz4 files are decompressed."`
}

func (c *DecodeCmd) Run(g *Globals, env *Env) error {
	logger := g.logger(env)
	cfg, err := g.settings(env, logger)
	if err != nil {
		return err
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}
	data, err := ReadInput(c.File, env.Stdin)
	if err != nil {
		return err
	}

	start := time.Now()
	v, err := shardjson.Decode(data, opts...)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintln(env.Stderr, Describe(err, data))
		return stageErr(StageDecode, err, "%s", c.File)
	}

	w := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "kind:\t%s\n", v.Kind())
	if v.Kind() == shardjson.KindArray || v.Kind() == shardjson.KindObject {
		fmt.Fprintf(w, "length:\t%s\n", humanize.Comma(int64(v.Len())))
	}
	fmt.Fprintf(w, "nodes:\t%s\n", humanize.Comma(int64(v.Nodes())))
	fmt.Fprintf(w, "fingerprint:\t%016x\n", v.Hash())
	fmt.Fprintf(w, "size:\t%s\n", humanize.Bytes(uint64(len(data))))
	fmt.Fprintf(w, "strategy:\t%s/%s\n", cfg.Strategy, cfg.TokenMode)
	fmt.Fprintf(w, "elapsed:\t%s\n", elapsed.Round(time.Microsecond))
	fmt.Fprintf(w, "throughput:\t%s\n", throughput(len(data), elapsed))
	return w.Flush()
}

// CompareCmd decodes one document with every strategy and token mode and
// with encoding/json, then checks the trees agree.
type CompareCmd struct {
	File string `arg:"" optional:"" default:"-" help:"JSON document to read, or - for stdin."`
	Runs int    `help:"Decode each configuration this many times and report the fastest." default:"3"`
}

type comparison struct {
	name    string
	hash    uint64
	elapsed time.Duration
	err     error
}

func (c *CompareCmd) Run(g *Globals, env *Env) error {
	logger := g.logger(env)
	cfg, err := g.settings(env, logger)
	if err != nil {
		return err
	}
	base, err := cfg.Options(logger)
	if err != nil {
		return err
	}
	data, err := ReadInput(c.File, env.Stdin)
	if err != nil {
		return err
	}
	runs := max(c.Runs, 1)

	var rows []comparison
	for _, strategy := range shardjson.Strategies() {
		for _, mode := range []shardjson.TokenMode{shardjson.TokenBorrowed, shardjson.TokenOwned, shardjson.TokenLazy} {
			if strategy == shardjson.StrategySharded && mode == shardjson.TokenLazy {
				continue
			}
			opts := append(base[:len(base):len(base)], shardjson.WithStrategy(strategy), shardjson.WithTokenMode(mode))
			row := comparison{name: strategy.String() + "/" + mode.String()}
			row.elapsed, row.hash, row.err = fastest(runs, func() (uint64, error) {
				v, err := shardjson.Decode(data, opts...)
				return v.Hash(), err
			})
			logger.Debug("compared", "decoder", row.name, "elapsed", row.elapsed, "error", row.err)
			rows = append(rows, row)
		}
	}

	std := comparison{name: "encoding/json"}
	std.elapsed, std.hash, std.err = fastest(runs, func() (uint64, error) {
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return 0, err
		}
		return fromInterface(tree).Hash(), nil
	})

	if err := writeComparison(env.Stdout, len(data), rows, std); err != nil {
		return err
	}

	ref := rows[0]
	for _, row := range rows[1:] {
		if (row.err == nil) != (ref.err == nil) || (ref.err == nil && row.hash != ref.hash) {
			return stageErr(StageCompare, ErrMismatch, "%s and %s disagree", ref.name, row.name)
		}
	}
	if ref.err != nil {
		fmt.Fprintln(env.Stderr, Describe(ref.err, data))
		return stageErr(StageDecode, ref.err, "%s", c.File)
	}
	if std.err == nil && std.hash != ref.hash {
		logger.Info("encoding/json produced a different tree", "hint", "number rounding differs unless --precise is set")
	}
	return nil
}

func fastest(runs int, decode func() (uint64, error)) (time.Duration, uint64, error) {
	var best time.Duration
	var hash uint64
	for i := 0; i < runs; i++ {
		start := time.Now()
		h, err := decode()
		elapsed := time.Since(start)
		if err != nil {
			return elapsed, 0, err
		}
		if i == 0 || elapsed < best {
			best = elapsed
		}
		hash = h
	}
	return best, hash, nil
}

func writeComparison(out io.Writer, size int, rows []comparison, std comparison) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "decoder\tfingerprint\ttime\tthroughput\tmatch\n")
	ref := rows[0]
	for _, row := range append(rows, std) {
		if row.err != nil {
			fmt.Fprintf(w, "%s\terror\t-\t-\t%v\n", row.name, row.err)
			continue
		}
		match := "yes"
		if ref.err != nil || row.hash != ref.hash {
			match = "no"
		}
		fmt.Fprintf(w, "%s\t%016x\t%s\t%s\t%s\n",
			row.name, row.hash, row.elapsed.Round(time.Microsecond), throughput(size, row.elapsed), match)
	}
	return w.Flush()
}

// SplitCmd prints the shard boundaries chosen for a document. The shard
// count comes from --shards and defaults to DefaultSplitShards.
type SplitCmd struct {
	File string `arg:"" optional:"" default:"-" help:"JSON document to read, or - for stdin."`
}

const DefaultSplitShards = 4

func (c *SplitCmd) Run(g *Globals, env *Env) error {
	data, err := ReadInput(c.File, env.Stdin)
	if err != nil {
		return err
	}
	n := DefaultSplitShards
	if g.Shards != nil {
		n = *g.Shards
	}
	ranges, err := scanner.Split(data, n)
	if err != nil {
		fmt.Fprintln(env.Stderr, Describe(err, data))
		return stageErr(StageDecode, err, "%s", c.File)
	}
	g.logger(env).Debug("planned", "bytes", len(data), "shards", len(ranges))

	w := tabwriter.NewWriter(env.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "shard\tstart\tend\tsize\t\n")
	for i, r := range ranges {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t\n", i, r.Start, r.End, humanize.Bytes(uint64(r.Len())))
	}
	return w.Flush()
}

func throughput(size int, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(float64(size)/elapsed.Seconds())) + "/s"
}

// fromInterface converts an encoding/json tree so it can be fingerprinted
// alongside decoded values.
func fromInterface(x any) value.Value {
	switch t := x.(type) {
	case bool:
		return value.Bool(t)
	case float64:
		return value.Number(t)
	case string:
		return value.String(t)
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			elems[i] = fromInterface(e)
		}
		return value.Array(elems...)
	case map[string]any:
		obj := value.NewObject(len(t))
		for k, e := range t {
			obj.Set(k, fromInterface(e))
		}
		return value.ObjectOf(obj)
	}
	return value.Null()
}
