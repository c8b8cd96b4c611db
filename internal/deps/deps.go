package deps

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/apiguard/internal/bundle"
	"github.com/dshills/apiguard/internal/toolchain"
)

var systemPrefixes = []string{"/usr/lib", "/System"}

// Resolver lists the non-system libraries a module links against.
type Resolver struct {
	Runner toolchain.Runner
	// Xcrun is the xcrun binary; defaults to "xcrun".
	Xcrun  string
	Logger zerolog.Logger
}

// List runs otool -L on the module's executable and returns its filtered dependencies.
func (r *Resolver) List(ctx context.Context, m *bundle.Module) ([]string, error) {
	xcrun := r.Xcrun
	if xcrun == "" {
		xcrun = "xcrun"
	}
	cmd := toolchain.Command{
		Name: xcrun,
		Args: []string{"otool", "-L", m.ExecutablePath()},
	}
	res, err := r.Runner.Run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies of %s: %w", m.BundleName, err)
	}

	all := ParseOtool(res.Stdout)
	deps := Filter(all, m.BundleName)
	r.Logger.Debug().
		Str("module", m.BundleName).
		Int("linked", len(all)).
		Strs("dependencies", deps).
		Msg("resolved dependencies")
	return deps, nil
}

// ParseOtool extracts library paths from `otool -L` output. The first line
// names the inspected binary; each following indented line is
// "<path> (compatibility version ..., current version ...)".
func ParseOtool(out string) []string {
	var libs []string
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue
		}
		if line == "" || (line[0] != '\t' && line[0] != ' ') {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		libs = append(libs, fields[0])
	}
	return libs
}

// Filter drops system libraries, dylibs and the module's own binary.
// Order is preserved and duplicates are kept.
func Filter(all []string, self string) []string {
	selfSuffix := self + ".framework/" + self
	var out []string
	for _, lib := range all {
		if isSystem(lib) || strings.HasSuffix(lib, ".dylib") || strings.HasSuffix(lib, selfSuffix) {
			continue
		}
		out = append(out, lib)
	}
	return out
}

func isSystem(lib string) bool {
	for _, p := range systemPrefixes {
		if strings.HasPrefix(lib, p) {
			return true
		}
	}
	return false
}
