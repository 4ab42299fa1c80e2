package main

import (
	"os"

	"github.com/biggeezerdevelopment/shardjson/internal/cli"
)

func main() {
	dir, _ := os.Getwd()
	os.Exit(cli.Main(os.Args[1:], &cli.Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Dir:    dir,
	}))
}
