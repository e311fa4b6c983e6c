// Package main provides the storagy CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/storagy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
