package digester_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apiguard/internal/bundle"
	"github.com/dshills/apiguard/internal/bundle/bundletest"
	"github.com/dshills/apiguard/internal/deps"
	"github.com/dshills/apiguard/internal/digester"
	"github.com/dshills/apiguard/internal/report"
	"github.com/dshills/apiguard/internal/toolchain"
	"github.com/dshills/apiguard/internal/toolchain/toolchaintest"
)

const linked = `/x/MapboxMaps:
	@rpath/MapboxMaps.framework/MapboxMaps (compatibility version 1.0.0, current version 1.0.0)
	@rpath/MapboxCoreMaps.framework/MapboxCoreMaps (compatibility version 1.0.0, current version 1.0.0)
	@rpath/MapboxCommon.framework/MapboxCommon (compatibility version 1.0.0, current version 1.0.0)
	/usr/lib/libobjc.A.dylib (compatibility version 1.0.0, current version 228.0.0)
`

type artifacts struct {
	root   string
	bundle *bundle.Bundle
}

func writeArtifacts(t *testing.T) artifacts {
	t.Helper()
	root := t.TempDir()
	path := bundletest.Write(t, root, bundletest.Framework{
		Name: "MapboxMaps",
		Libraries: []bundle.Library{
			bundletest.SimulatorLibrary("MapboxMaps"),
			bundletest.DeviceLibrary("MapboxMaps"),
		},
	})
	bundletest.Write(t, root, bundletest.Framework{
		Name:      "MapboxCoreMaps",
		Libraries: []bundle.Library{bundletest.DeviceLibrary("MapboxCoreMaps")},
	})
	bundletest.Write(t, root, bundletest.Framework{
		Name:      "Turf",
		Libraries: []bundle.Library{bundletest.DeviceLibrary("Turf")},
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), nil, 0o644))

	b, err := bundle.Open(path)
	require.NoError(t, err)
	return artifacts{root: root, bundle: b}
}

func newDigester(runner toolchain.Runner) *digester.Digester {
	return &digester.Digester{
		Runner:   runner,
		Xcrun:    "xcrun",
		SDK:      "iphoneos",
		Platform: "ios",
		Deps:     &deps.Resolver{Runner: runner, Logger: zerolog.Nop()},
		Logger:   zerolog.Nop(),
	}
}

func TestDump(t *testing.T) {
	a := writeArtifacts(t)
	out := filepath.Join(t.TempDir(), "MapboxMaps.json")

	runner := &toolchaintest.Runner{
		Handler: func(cmd toolchain.Command) (toolchain.Result, error) {
			if cmd.Args[0] == "otool" {
				return toolchain.Result{Stdout: linked}, nil
			}
			return toolchain.Result{}, os.WriteFile(toolchaintest.ArgValue(cmd, "-o"), []byte("{}"), 0o644)
		},
	}

	err := newDigester(runner).Dump(context.Background(), digester.DumpRequest{
		Bundle:           a.bundle,
		DependenciesRoot: a.root,
		OutputPath:       out,
		ABI:              true,
	})
	require.NoError(t, err)
	assert.FileExists(t, out)

	require.Len(t, runner.Calls, 2)
	assert.Equal(t, "otool", runner.Calls[0].Args[0])

	dump := runner.Calls[1]
	assert.Equal(t, "xcrun", dump.Name)
	assert.Equal(t, []string{
		"--sdk", "iphoneos", "swift-api-digester",
		"-dump-sdk",
		"-o", out,
		"-abort-on-module-fail",
		"-v",
		"-avoid-tool-args", "-avoid-location",
		"-abi",
		"-iframework", filepath.Join(a.root, "MapboxCoreMaps.xcframework", "ios-arm64"),
		"-module", "MapboxMaps",
		"-target", "arm64-apple-ios12.0",
		"-iframework", filepath.Join(a.root, "MapboxMaps.xcframework", "ios-arm64"),
	}, dump.Args)
}

func TestDump_NoABI(t *testing.T) {
	a := writeArtifacts(t)
	runner := &toolchaintest.Runner{}

	err := newDigester(runner).Dump(context.Background(), digester.DumpRequest{
		Bundle:           a.bundle,
		DependenciesRoot: a.root,
		OutputPath:       "out.json",
	})
	require.NoError(t, err)
	require.Len(t, runner.Calls, 2)
	assert.False(t, toolchaintest.HasArg(runner.Calls[1], "-abi"))
	assert.Equal(t, "MapboxMaps", toolchaintest.ArgValue(runner.Calls[1], "-module"))
}

func TestDump_ToolFailure(t *testing.T) {
	a := writeArtifacts(t)
	runner := &toolchaintest.Runner{
		Handler: func(cmd toolchain.Command) (toolchain.Result, error) {
			if cmd.Args[0] == "otool" {
				return toolchain.Result{Stdout: linked}, nil
			}
			return toolchaintest.Fail(cmd, 1, "error: failed to load module 'MapboxMaps'")
		},
	}

	err := newDigester(runner).Dump(context.Background(), digester.DumpRequest{
		Bundle:           a.bundle,
		DependenciesRoot: a.root,
		OutputPath:       "out.json",
	})
	failure, ok := toolchain.AsExternalToolFailure(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, failure.Stderr, "failed to load module")
}

func TestDump_DependencyListingFails(t *testing.T) {
	a := writeArtifacts(t)
	runner := &toolchaintest.Runner{
		Handler: func(cmd toolchain.Command) (toolchain.Result, error) {
			return toolchaintest.Fail(cmd, 1, "otool: can't open file")
		},
	}

	err := newDigester(runner).Dump(context.Background(), digester.DumpRequest{
		Bundle:           a.bundle,
		DependenciesRoot: a.root,
		OutputPath:       "out.json",
	})
	require.Error(t, err)
	assert.Len(t, runner.Calls, 1, "dump must not run after dependency listing fails")
}

func TestDump_NoDeviceVariant(t *testing.T) {
	root := t.TempDir()
	path := bundletest.Write(t, root, bundletest.Framework{
		Name:      "MapboxMaps",
		Libraries: []bundle.Library{bundletest.SimulatorLibrary("MapboxMaps")},
	})
	b, err := bundle.Open(path)
	require.NoError(t, err)
	runner := &toolchaintest.Runner{}

	err = newDigester(runner).Dump(context.Background(), digester.DumpRequest{
		Bundle:           b,
		DependenciesRoot: root,
		OutputPath:       "out.json",
	})
	var noMatch *bundle.NoMatchingVariantError
	assert.True(t, errors.As(err, &noMatch), "got %v", err)
	assert.Empty(t, runner.Calls)
}

type staticDeps []string

func (s staticDeps) List(context.Context, *bundle.Module) ([]string, error) {
	return s, nil
}

func TestDump_MissingDependenciesRoot(t *testing.T) {
	a := writeArtifacts(t)
	runner := &toolchaintest.Runner{}
	d := newDigester(runner)
	d.Deps = staticDeps{"@rpath/Turf.framework/Turf"}

	err := d.Dump(context.Background(), digester.DumpRequest{
		Bundle:           a.bundle,
		DependenciesRoot: filepath.Join(a.root, "nope"),
		OutputPath:       "out.json",
	})
	assert.Error(t, err)
	assert.Empty(t, runner.Calls)
}

func TestCompareArgs(t *testing.T) {
	req := digester.CompareRequest{
		Baseline:   "/a/base.json",
		Candidate:  "/a/latest.json",
		OutputPath: "/a/report.txt",
	}
	assert.Equal(t, []string{
		"--sdk", "iphoneos", "swift-api-digester",
		"-diagnose-sdk",
		"-o", "/a/report.txt",
		"-input-paths", "/a/base.json",
		"-input-paths", "/a/latest.json",
		"-v",
	}, digester.CompareArgs("iphoneos", req))

	req.AllowList = "/a/allow.txt"
	args := digester.CompareArgs("iphoneos", req)
	assert.Equal(t, []string{"-breakage-allowlist-path", "/a/allow.txt"}, args[len(args)-2:])
}

func TestCompare(t *testing.T) {
	dir := t.TempDir()
	removed := strings.Replace(string(report.EmptyReport()),
		"/* Removed Decls */\n",
		"/* Removed Decls */\nFunc Map.flyTo(to:) has been removed\n", 1)

	tests := []struct {
		name      string
		output    string
		wantGood  bool
		wantFound []string
	}{
		{name: "identical", output: string(report.EmptyReport()), wantGood: true},
		{name: "removed", output: removed, wantFound: []string{"Func Map.flyTo(to:) has been removed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".txt")
			runner := &toolchaintest.Runner{
				Handler: func(cmd toolchain.Command) (toolchain.Result, error) {
					return toolchain.Result{}, os.WriteFile(toolchaintest.ArgValue(cmd, "-o"), []byte(tt.output), 0o644)
				},
			}
			r, err := newDigester(runner).Compare(context.Background(), digester.CompareRequest{
				Baseline:   "base.json",
				Candidate:  "latest.json",
				OutputPath: out,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantGood, r.Good)
			assert.Equal(t, out, r.Path)
			assert.Equal(t, tt.wantFound, r.Findings("Removed Decls"))
			assert.False(t, toolchaintest.HasArg(runner.Calls[0], "-breakage-allowlist-path"))
		})
	}
}

func TestCompare_ToolFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	runner := &toolchaintest.Runner{
		Handler: func(cmd toolchain.Command) (toolchain.Result, error) {
			return toolchaintest.Fail(cmd, 1, "error: cannot read base.json")
		},
	}

	r, err := newDigester(runner).Compare(context.Background(), digester.CompareRequest{
		Baseline:   "base.json",
		Candidate:  "latest.json",
		OutputPath: out,
		AllowList:  "allow.txt",
	})
	assert.Nil(t, r)
	failure, ok := toolchain.AsExternalToolFailure(err)
	require.True(t, ok)
	assert.Equal(t, "error: cannot read base.json", failure.Stderr)
	assert.Equal(t, "allow.txt", toolchaintest.ArgValue(runner.Calls[0], "-breakage-allowlist-path"))
	assert.NoFileExists(t, out)
}

func TestDigesterDefaults(t *testing.T) {
	a := writeArtifacts(t)
	runner := &toolchaintest.Runner{}
	d := &digester.Digester{Runner: runner, Deps: staticDeps(nil), Logger: zerolog.Nop()}

	require.NoError(t, d.Dump(context.Background(), digester.DumpRequest{Bundle: a.bundle, OutputPath: "o.json"}))
	require.Len(t, runner.Calls, 1)
	assert.Equal(t, "xcrun", runner.Calls[0].Name)
	assert.Equal(t, "iphoneos", toolchaintest.ArgValue(runner.Calls[0], "--sdk"))
}
