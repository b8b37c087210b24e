// Package main is the trackcse command.
//
// Usage:
//
//	trackcse run <scenario.yaml>... [--db path] [--dialect file.cue] [--ir]
//	trackcse validate <scenario.yaml>...
//	trackcse dialect <file.cue>
//	trackcse runs --db path [--run id | --op id]
//
// Exit status is 0 on success, 1 when scenario expectations or validation
// fail, and 2 on command errors.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/trackcse/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Subcommands report their own errors on stdout.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
