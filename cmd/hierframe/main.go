// Command hierframe builds, stores and inspects hierarchical event tables.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/hierframe/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Flag and argument errors are not reported by the commands.
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
