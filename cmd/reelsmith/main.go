// reelsmith is a reference-locked video generation service.
package main

import (
	"os"

	"github.com/reelsmith/reelsmith/cmd/reelsmith/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
