package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/apiguard/internal/config"
	"github.com/dshills/apiguard/internal/logging"
	"github.com/dshills/apiguard/internal/toolchain"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitBreakage     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

// app holds what one invocation of the command tree shares.
type app struct {
	stdout io.Writer
	stderr io.Writer
	// newRunner builds the external tool runner; tests swap in a fake.
	newRunner func(zerolog.Logger) toolchain.Runner

	logLevel string
	logger   zerolog.Logger
	started  bool
	exitCode int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		newRunner: func(l zerolog.Logger) toolchain.Runner {
			return toolchain.NewExecRunner(logging.WithComponent(l, "toolchain"))
		},
		logger: zerolog.Nop(),
	}
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp(os.Stdout, os.Stderr).execute(ctx, os.Args[1:])
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "apiguard",
		Short: "SDK API compatibility gate",
		Long: "apiguard dumps the public API of an SDK framework bundle with swift-api-digester " +
			"and fails CI when a candidate build breaks the baseline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.started = true
			a.logger = a.newLogger(a.logLevel)
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")

	root.AddCommand(a.dumpCmd())
	root.AddCommand(a.checkCmd())
	root.AddCommand(a.configCmd())
	root.AddCommand(a.versionCmd())
	return root
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return a.fail(err)
	}
	return a.exitCode
}

// fail prints err and maps it to an exit code. Errors raised before a
// command starts running come from flag or argument parsing.
func (a *app) fail(err error) int {
	a.printError(err)

	var usage *usageError
	if !a.started || errors.As(err, &usage) {
		return ExitUsageError
	}
	return ExitRuntimeError
}

// printError writes err to stderr, preceded by the failing tool's own stderr.
func (a *app) printError(err error) {
	if failure, ok := toolchain.AsExternalToolFailure(err); ok && failure.Stderr != "" {
		fmt.Fprint(a.stderr, failure.Stderr)
		if failure.Stderr[len(failure.Stderr)-1] != '\n' {
			fmt.Fprintln(a.stderr)
		}
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
}

// usageError marks a bad flag value or configuration detected inside a command.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// loadConfig merges configuration with flag overrides and rebuilds the logger
// at the configured level.
func (a *app) loadConfig(overrides map[string]string) (config.Config, error) {
	if a.logLevel != "" {
		overrides["logLevel"] = a.logLevel
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return config.Config{}, &usageError{err}
	}
	a.logger = a.newLogger(cfg.LogLevel)
	return cfg, nil
}

func (a *app) newLogger(level string) zerolog.Logger {
	lc := logging.DefaultConfig()
	lc.Output = a.stderr
	if level != "" {
		lc.Level = level
	}
	return logging.New(lc)
}

// negatableBool is a --name flag paired with a hidden --no-name. The
// negative form wins when both are given.
type negatableBool struct {
	name string
	on   bool
	off  bool
}

func addNegatable(fs *pflag.FlagSet, name, usage string) *negatableBool {
	n := &negatableBool{name: name}
	fs.BoolVar(&n.on, name, false, usage)
	fs.BoolVar(&n.off, "no-"+name, false, "Disable --"+name)
	_ = fs.MarkHidden("no-" + name)
	return n
}

// override returns "true" or "false" when either form was set, or "" to keep
// the configured value.
func (n *negatableBool) override(fs *pflag.FlagSet) string {
	switch {
	case fs.Changed("no-"+n.name) && n.off:
		return "false"
	case fs.Changed(n.name):
		return strconv.FormatBool(n.on)
	}
	return ""
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print apiguard version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "apiguard version %s\n", version)
		},
	}
}
