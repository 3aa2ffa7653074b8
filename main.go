// Package main is the gitstate command: Git workspace state for build tooling.
package main

import (
	"fmt"
	"os"

	"github.com/apiarycd/gitstate/internal/cli"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
