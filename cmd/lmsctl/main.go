// Command lmsctl inspects and edits learning progress from the terminal,
// against the same storage the server uses.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
