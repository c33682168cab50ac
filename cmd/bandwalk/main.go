// Command bandwalk compiles banded report definitions, traverses them over
// data files and replays stored runs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/roach88/bandwalk/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "bandwalk: %v\n", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
