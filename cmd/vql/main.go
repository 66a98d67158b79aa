// Command vql queries files by their attributes.
package main

import (
	"fmt"
	"os"

	"github.com/trylock/viewer-sub002/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsQuiet(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
