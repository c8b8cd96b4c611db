package digester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/apiguard/internal/bundle"
	"github.com/dshills/apiguard/internal/report"
	"github.com/dshills/apiguard/internal/toolchain"
)

const tool = "swift-api-digester"

// DependencyLister returns the non-system libraries a module links against.
type DependencyLister interface {
	List(ctx context.Context, m *bundle.Module) ([]string, error)
}

// Digester drives swift-api-digester through xcrun.
type Digester struct {
	Runner   toolchain.Runner
	Xcrun    string
	SDK      string
	Platform string
	Deps     DependencyLister
	Logger   zerolog.Logger
}

// DumpRequest describes one API dump.
type DumpRequest struct {
	Bundle *bundle.Bundle
	// DependenciesRoot is searched for sibling .xcframework bundles.
	DependenciesRoot string
	OutputPath       string
	ABI              bool
}

// CompareRequest describes one comparison between two dumps.
type CompareRequest struct {
	Baseline   string
	Candidate  string
	OutputPath string
	// AllowList is optional and passed through to the tool untouched.
	AllowList string
}

func (d *Digester) xcrun() string {
	if d.Xcrun == "" {
		return "xcrun"
	}
	return d.Xcrun
}

func (d *Digester) sdk() string {
	if d.SDK == "" {
		return "iphoneos"
	}
	return d.SDK
}

func (d *Digester) platform() string {
	if d.Platform == "" {
		return "ios"
	}
	return d.Platform
}

// Dump writes the public API surface of req.Bundle to req.OutputPath.
// Any non-zero exit of the tool fails the dump; partial output is not trusted.
func (d *Digester) Dump(ctx context.Context, req DumpRequest) error {
	m, err := req.Bundle.DeviceModule(d.platform())
	if err != nil {
		return err
	}

	linked, err := d.Deps.List(ctx, m)
	if err != nil {
		return err
	}
	searchPaths, err := d.dependencySearchPaths(req.DependenciesRoot, req.Bundle.Name, linked)
	if err != nil {
		return err
	}

	cmd := toolchain.Command{
		Name: d.xcrun(),
		Args: DumpArgs(d.sdk(), req.OutputPath, req.ABI, m, searchPaths),
	}
	d.Logger.Info().
		Str("module", m.BundleName).
		Str("target", m.TargetTriple()).
		Bool("abi", req.ABI).
		Str("output", req.OutputPath).
		Msg("dumping API")

	if _, err := d.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%s dump failed: %w", tool, err)
	}
	return nil
}

// DumpArgs builds the xcrun arguments for a dump of m.
func DumpArgs(sdk, output string, abi bool, m *bundle.Module, dependencySearchPaths []string) []string {
	args := []string{
		"--sdk", sdk, tool,
		"-dump-sdk",
		"-o", output,
		"-abort-on-module-fail",
		"-v",
		"-avoid-tool-args", "-avoid-location",
	}
	if abi {
		args = append(args, "-abi")
	}
	for _, p := range dependencySearchPaths {
		args = append(args, "-iframework", p)
	}
	return append(args,
		"-module", m.BundleName,
		"-target", m.TargetTriple(),
		"-iframework", m.SearchPath(),
	)
}

// dependencySearchPaths maps each linked library onto a sibling bundle in
// root by base name and returns the device search path of every match.
func (d *Digester) dependencySearchPaths(root, self string, linked []string) ([]string, error) {
	if len(linked) == 0 || root == "" {
		return nil, nil
	}
	siblings, err := siblings(root, self)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, lib := range linked {
		name := filepath.Base(lib)
		path, ok := siblings[name]
		if !ok {
			d.Logger.Debug().Str("dependency", lib).Msg("no sibling bundle, skipping")
			continue
		}
		b, err := bundle.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening dependency %s: %w", name, err)
		}
		m, err := b.DeviceModule(d.platform())
		if err != nil {
			return nil, fmt.Errorf("resolving dependency %s: %w", name, err)
		}
		paths = append(paths, m.SearchPath())
	}
	return paths, nil
}

// siblings indexes the bundles directly inside root by name. The first
// directory seen for a name wins.
func siblings(root, self string) (map[string]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading dependencies directory: %w", err)
	}
	found := make(map[string]string)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), bundle.Extension) {
			continue
		}
		name := bundle.NameOf(e.Name())
		if name == self {
			continue
		}
		if _, dup := found[name]; !dup {
			found[name] = filepath.Join(root, e.Name())
		}
	}
	return found, nil
}

// Compare diagnoses the differences between two dumps, writes the raw report
// to req.OutputPath and loads it. No report is built when the tool fails.
func (d *Digester) Compare(ctx context.Context, req CompareRequest) (*report.BreakageReport, error) {
	cmd := toolchain.Command{
		Name: d.xcrun(),
		Args: CompareArgs(d.sdk(), req),
	}
	d.Logger.Info().
		Str("baseline", req.Baseline).
		Str("candidate", req.Candidate).
		Str("allowlist", req.AllowList).
		Msg("comparing API dumps")

	if _, err := d.Runner.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("%s diagnose failed: %w", tool, err)
	}
	return report.Load(req.OutputPath)
}

// CompareArgs builds the xcrun arguments for a comparison.
func CompareArgs(sdk string, req CompareRequest) []string {
	args := []string{
		"--sdk", sdk, tool,
		"-diagnose-sdk",
		"-o", req.OutputPath,
		"-input-paths", req.Baseline,
		"-input-paths", req.Candidate,
		"-v",
	}
	if req.AllowList != "" {
		args = append(args, "-breakage-allowlist-path", req.AllowList)
	}
	return args
}
