// Package cli implements the shardjson command: decoding files, comparing
// strategies against each other and encoding/json, and printing shard plans.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
)

// Version is reported by --version.
const Version = "0.3.0"

// Globals are the flags shared by every command. Flags left unset fall back
// to the config file, then to the library defaults.
type Globals struct {
	Config       string `help:"YAML file with decode settings. Defaults to .shardjson.yml in the working directory or a parent." short:"c" type:"path"`
	Debug        bool   `help:"Enable debug logging." short:"d"`
	Strategy     string `help:"Tokenizer: runes, bytes or sharded." short:"s"`
	TokenMode    string `help:"How tokens reach the builder: borrowed, owned or lazy." name:"token-mode"`
	Shards       *int   `help:"Shard count for the sharded strategy (0 means GOMAXPROCS)."`
	Workers      *int   `help:"Concurrent shard workers (0 means GOMAXPROCS)."`
	MinShardSize *int   `help:"Smallest shard worth tokenizing on its own, in bytes." name:"min-shard-size"`
	MaxDepth     *int   `help:"Nesting limit (0 disables it)." name:"max-depth"`
	Permissive   bool   `help:"Keep unknown string escapes literally instead of rejecting them."`
	Precise      bool   `help:"Convert numbers with a correctly rounded parser."`
}

// CLI is the kong command tree.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Decode  DecodeCmd  `cmd:"" help:"Decode a document and print a summary of the tree."`
	Compare CompareCmd `cmd:"" help:"Decode a document with every configuration and encoding/json and compare the results."`
	Split   SplitCmd   `cmd:"" help:"Print the shard plan for a document."`
}

// Env is the process environment a command runs in.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Dir is where the config file search starts.
	Dir string
}

// Main parses args and runs the selected command. It returns the process
// exit code.
func Main(args []string, env *Env) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("shardjson"),
		kong.Description("Decode JSON with byte, rune or sharded parallel tokenizers."),
		kong.Writers(env.Stdout, env.Stderr),
		kong.Vars{"version": Version},
	)
	if err != nil {
		fmt.Fprintf(env.Stderr, "shardjson: %v\n", err)
		return 2
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(env.Stderr, "shardjson: %v\n\nFor help, run: shardjson --help\n", err)
		return 2
	}

	if err := ctx.Run(&cli.Globals, env); err != nil {
		fmt.Fprintf(env.Stderr, "shardjson: %v\n", err)
		return 1
	}
	return 0
}

func (g *Globals) logger(env *Env) *slog.Logger {
	level := slog.LevelInfo
	if g.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: level}))
}

// settings layers the config file and explicit flags over the defaults.
func (g *Globals) settings(env *Env, logger *slog.Logger) (*Config, error) {
	path := g.Config
	if path == "" && env.Dir != "" {
		path = FindConfigFile(env.Dir)
	}

	cfg := NewConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
		logger.Info("using config file", "path", path)
	}

	if g.Strategy != "" {
		cfg.Strategy = g.Strategy
	}
	if g.TokenMode != "" {
		cfg.TokenMode = g.TokenMode
	}
	if g.Shards != nil {
		cfg.Shards = *g.Shards
	}
	if g.Workers != nil {
		cfg.Workers = *g.Workers
	}
	if g.MinShardSize != nil {
		cfg.MinShardSize = *g.MinShardSize
	}
	if g.MaxDepth != nil {
		cfg.MaxDepth = *g.MaxDepth
	}
	if g.Permissive {
		cfg.Escapes = "permissive"
	}
	if g.Precise {
		cfg.Numbers = "precise"
	}
	logger.Debug("settings", "config", cfg.String())
	return cfg, nil
}
