// Command capitalens is the Capital Lens CLI: a Japanese market dashboard,
// recent TSE listing browser, and aggregation server in one binary.
package main

import (
	"os"

	"github.com/capitalens/capitalens/internal/cli"
	"github.com/capitalens/capitalens/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the result to an exit code. Split
// from main so tests can exercise it without exiting the process.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
