// ticketctl generates synthetic service-desk datasets and computes KPI
// reports from them without running the API server.
//
// Subcommands:
//
//	generate  write a synthetic ticket dataset as CSV
//	report    compute the KPI report for a CSV dataset
//	import    copy a CSV dataset into PostgreSQL
//	token     mint an operator token for the regeneration endpoint
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/lorrc/service-desk-analytics/internal/config"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/logging"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks bad invocations; they exit with exitUsage.
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

var commands = []command{
	{name: "generate", summary: "write a synthetic ticket dataset as CSV", run: runGenerate},
	{name: "report", summary: "compute the KPI report for a CSV dataset", run: runReport},
	{name: "import", summary: "copy a CSV dataset into PostgreSQL", run: runImport},
	{name: "token", summary: "mint an operator token for dataset regeneration", run: runToken},
}

// environment carries the process-wide dependencies of a subcommand.
type environment struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	// .env is optional for the CLI as well
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cfg := config.FromEnv()
	env := &environment{
		stdout: stdout,
		stderr: stderr,
		cfg:    cfg,
		logger: logging.NewLogger(logging.Config{
			Level:       cfg.Logging.Level,
			Format:      "text",
			Output:      stderr,
			ServiceName: "ticketctl",
			Environment: cfg.App.Environment,
		}),
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		err := cmd.run(ctx, env, args[1:])
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, pflag.ErrHelp):
			return exitOK
		case errors.Is(err, errUsage):
			fmt.Fprintf(stderr, "ticketctl %s: %v\n", cmd.name, err)
			return exitUsage
		default:
			fmt.Fprintf(stderr, "ticketctl %s: %v\n", cmd.name, err)
			return exitError
		}
	}

	fmt.Fprintf(stderr, "ticketctl: unknown command %q\n\n", args[0])
	printUsage(stderr)
	return exitUsage
}

// newFlagSet builds a subcommand flag set that reports to stderr and does
// not exit the process.
func newFlagSet(env *environment, name, usage string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("ticketctl "+name, pflag.ContinueOnError)
	flagSet.SetOutput(env.stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(env.stderr, "Usage:\n  ticketctl %s %s\n\nFlags:\n", name, usage)
		flagSet.PrintDefaults()
	}
	return flagSet
}

// parseFlags parses args and rejects positional arguments.
func parseFlags(flagSet *pflag.FlagSet, args []string) error {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", errUsage, extra[0])
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ticketctl manages synthetic service-desk datasets and KPI reports.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ticketctl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "ticketctl <command> --help" for the flags of a command.`)
}
