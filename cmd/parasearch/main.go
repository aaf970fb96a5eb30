// Package main provides the entry point for the parasearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/parasearch/parasearch/cmd/parasearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
