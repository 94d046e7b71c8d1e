// Command sercha-mirror runs the incremental forum and issue-tracker indexer.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-mirror/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
