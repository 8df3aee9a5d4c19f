// Package main is the entry point for the callbridge media relay.
package main

import (
	"fmt"
	"os"

	"github.com/square-key-labs/strawgo-callbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
