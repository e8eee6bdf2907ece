// Package main is the entry point for the csmoney scraper CLI.
package main

import (
	"os"

	"github.com/alisaosipova/steam-csmoney/cmd/csmoney/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
