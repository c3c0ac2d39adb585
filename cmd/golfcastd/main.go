// Package main is the entry point for the golfcastd application.
package main

import (
	"os"

	"github.com/golfcast/golfcast/cmd/golfcastd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
