package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ensure-db/internal/bootstrap"
)

const usage = "Usage: ensure-db <DATABASE_URL>"

func main() {
	// SIGINT or SIGTERM (container stop) abandons the wait or the admin connection.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code:
// 0 on success, 1 on any failure, 2 when the URL argument is missing.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	if len(args) < 2 {
		fmt.Fprintln(stdout, usage)
		return 2
	}

	cfg, err := bootstrap.LoadConfig(getenv)
	if err != nil {
		fmt.Fprintln(stdout, "Failed to ensure DB exists:", err)
		return 1
	}

	logger := bootstrap.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat == "json")
	runner := bootstrap.NewRunner(cfg, stdout, logger)

	if _, err := runner.EnsureDatabase(ctx, args[1]); err != nil {
		fmt.Fprintln(stdout, "Failed to ensure DB exists:", err)
		return 1
	}

	fmt.Fprintln(stdout, "DB check/creation complete.")
	return 0
}
