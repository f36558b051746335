// Package main is the report-labeler command line: it runs the report
// gateway, the labeling service, or a one-off stamp of a local file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "report-labeler: %v\n", err)
		stop()
		os.Exit(1)
	}
}
