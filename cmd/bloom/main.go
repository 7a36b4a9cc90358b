// Package main is the single-binary entrypoint for bloom, a local mood
// journal with a garden that grows as you check in.
package main

import "github.com/bloom-journal/bloom/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
