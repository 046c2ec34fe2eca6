// Package main provides the strata CLI.
package main

import (
	"os"

	"github.com/strata-build/strata/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
