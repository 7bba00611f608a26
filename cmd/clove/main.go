// Package main is the entry point for the clove query CLI: a thin
// collaborator around the clove package's four evaluation entry points.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("clove: command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
