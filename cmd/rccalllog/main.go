// Package main is the entry point for the rccalllog CLI.
package main

import (
	"os"

	"github.com/rc-tools/rccalllog/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
