// Command lendingctl runs the book lending operations against Postgres and the configured
// payment, notification and alerting services.
//
//	lendingctl [-env-file .env] <command> [flags]
//
// Commands: borrow, return, list, get, update, delete, delete-all.
// Results are written to stdout as JSON, logs go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AntonStoeckl/book-lending-settlement/config"
	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitRejected = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("lendingctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	envFile := global.String("env-file", "", "dotenv file loaded before reading the environment")
	global.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: lendingctl [-env-file path] <borrow|return|list|get|update|delete|delete-all> [flags]")
		global.PrintDefaults()
	}

	if err := global.Parse(args); err != nil {
		return exitUsage
	}

	cmd, err := parseCommand(global.Args(), stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(stderr, err)
		}
		global.Usage()

		return exitUsage
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := wire(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitFailure
	}

	result, runErr := cmd.run(ctx, a)
	closeErr := a.close()

	if runErr != nil {
		return reportError(stdout, runErr)
	}

	if err := writeJSON(stdout, result); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitFailure
	}

	if closeErr != nil {
		_, _ = fmt.Fprintln(stderr, closeErr)
	}

	return exitOK
}

// reportError writes the error as JSON and maps it to the exit code.
func reportError(w io.Writer, err error) int {
	_ = writeJSON(w, errorViewOf(err))

	if core.IsRejection(err) {
		return exitRejected
	}

	return exitFailure
}
