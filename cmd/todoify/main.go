// Package main is the entry point for the Todoify terminal client.
package main

import (
	"os"

	"github.com/hy4ri/todoify/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
