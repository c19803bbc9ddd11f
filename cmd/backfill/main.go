package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"backfill/internal/reconcile"
)

// exitInterrupted follows the shell convention for SIGINT.
const exitInterrupted = 130

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

func execute(args []string, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, reconcile.ErrInterrupted), errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "backfill interrupted; unresolved records remain eligible for the next run")
		return exitInterrupted
	default:
		fmt.Fprintln(stderr, err)
		return 1
	}
}
