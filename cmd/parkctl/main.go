// Package main provides parkctl, the park operations admin CLI.
package main

import (
	"fmt"
	"os"

	"park-ops/cmd/parkctl/commands"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
