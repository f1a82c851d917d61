// Command bubblesync synchronises Bubble application data into a local
// vector index.
package main

import (
	"os"

	"github.com/praxis-labs/bubblesync/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
