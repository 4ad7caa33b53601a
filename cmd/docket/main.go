package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Graceful shutdown: in-flight documents finish, no new ones start.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
