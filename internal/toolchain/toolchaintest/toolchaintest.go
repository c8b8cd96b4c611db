// Package toolchaintest provides a scripted toolchain.Runner for tests.
package toolchaintest

import (
	"context"

	"github.com/dshills/apiguard/internal/toolchain"
)

// Runner records every command and answers with Handler.
// A nil Handler makes every command succeed with empty output.
type Runner struct {
	Calls   []toolchain.Command
	Handler func(cmd toolchain.Command) (toolchain.Result, error)
}

// Run records cmd and delegates to Handler.
func (r *Runner) Run(_ context.Context, cmd toolchain.Command) (toolchain.Result, error) {
	r.Calls = append(r.Calls, cmd)
	if r.Handler == nil {
		return toolchain.Result{}, nil
	}
	return r.Handler(cmd)
}

// Fail builds the result and error a real runner returns for a non-zero exit.
func Fail(cmd toolchain.Command, code int, stderr string) (toolchain.Result, error) {
	return toolchain.Result{Stderr: stderr, ExitCode: code}, &toolchain.ExternalToolFailure{
		Command:  cmd.String(),
		ExitCode: code,
		Stderr:   stderr,
	}
}

// ArgValue returns the argument following flag in cmd, or "" if flag is absent.
func ArgValue(cmd toolchain.Command, flag string) string {
	for i := 0; i < len(cmd.Args)-1; i++ {
		if cmd.Args[i] == flag {
			return cmd.Args[i+1]
		}
	}
	return ""
}

// HasArg reports whether arg appears in cmd's arguments.
func HasArg(cmd toolchain.Command, arg string) bool {
	for _, a := range cmd.Args {
		if a == arg {
			return true
		}
	}
	return false
}
