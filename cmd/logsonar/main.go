// Package main provides the entry point for the logsonar CLI.
package main

import (
	"os"

	"github.com/akodali/logsonar/cmd/logsonar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
