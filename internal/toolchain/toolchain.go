package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dshills/apiguard/internal/toolchain"

// Command describes a single external tool invocation.
type Command struct {
	Name string
	Args []string
}

// String returns the command line as it would be typed in a shell, without quoting.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external commands and blocks until they exit.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExternalToolFailure is returned when an external tool exits with a non-zero status.
type ExternalToolFailure struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExternalToolFailure) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
}

// AsExternalToolFailure reports whether err wraps an ExternalToolFailure and returns it.
func AsExternalToolFailure(err error) (*ExternalToolFailure, bool) {
	var failure *ExternalToolFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// ExecRunner runs commands as subprocesses. Every invocation is wrapped in a span.
type ExecRunner struct {
	Tracer trace.Tracer
	Logger zerolog.Logger
}

// NewExecRunner returns an ExecRunner using the global tracer provider.
func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{
		Tracer: otel.Tracer(tracerName),
		Logger: logger,
	}
}

// Run executes c and captures stdout and stderr. There is no timeout; cancel ctx to stop a hung tool.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	tracer := r.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "exec "+filepath.Base(c.Name))
	defer span.End()

	span.SetAttributes(
		attribute.String("process.executable.name", c.Name),
		attribute.StringSlice("process.command_args", c.Args),
	)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug().Str("cmd", c.String()).Msg("running external tool")

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			failure := &ExternalToolFailure{
				Command:  c.String(),
				ExitCode: res.ExitCode,
				Stderr:   res.Stderr,
			}
			span.SetAttributes(attribute.Int("process.exit.code", res.ExitCode))
			span.RecordError(failure)
			span.SetStatus(codes.Error, failure.Error())
			r.Logger.Debug().Str("cmd", c.String()).Int("exit_code", res.ExitCode).Msg("external tool failed")
			return res, failure
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, fmt.Errorf("running %s: %w", c.Name, err)
	}

	span.SetAttributes(attribute.Int("process.exit.code", 0))
	span.SetStatus(codes.Ok, "")
	return res, nil
}
