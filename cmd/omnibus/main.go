// Command omnibus demonstrates omnibus channels from the terminal: it
// compares the concurrency policies side by side and runs a counter service.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
