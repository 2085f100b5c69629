// Command td is a command-line client for the taskdeck service, backed
// by a local sync cache so reads stay fast and survive a flaky network.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
