// Package main provides the entry point for the codescribe CLI.
package main

import (
	"os"

	"github.com/codescribe/codescribe/cmd/codescribe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
