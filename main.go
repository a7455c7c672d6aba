// gh-since finds GitHub repositories and files by when they were last active.
package main

import (
	"fmt"
	"os"

	"github.com/jparise/gh-since/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
