// Package main is the entry point for the halcyon-migrate CLI, the
// operator tool for the schema revision ledger.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
