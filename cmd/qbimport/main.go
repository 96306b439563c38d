// Package main is the entry point for the qbimport CLI.
package main

import (
	"os"

	"github.com/plainledger/qbimport/cmd/qbimport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
