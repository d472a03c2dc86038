// Package main is the entry point for the seoforge CLI.
package main

import (
	"os"

	"github.com/seoforge/seoforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
