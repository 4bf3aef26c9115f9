package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/singlow/harlequin-athena/adapter"
	"github.com/singlow/harlequin-athena/cmd/harlequin-athena/cmd"
)

var appVersion = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.NewCmd(appVersion).ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	var connErr *adapter.ConnectionError
	var queryErr *adapter.QueryError

	switch {
	case errors.As(err, &connErr):
		fmt.Fprintf(os.Stderr, "%s\n%s\n", connErr.Title, connErr.Msg)
	case errors.As(err, &queryErr):
		fmt.Fprintf(os.Stderr, "%s\n%s\n", queryErr.Title, queryErr.Msg)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
}
