package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ModuleInfo is the subset of a module's Info.plist apiguard needs.
type ModuleInfo struct {
	MinimumOSVersion string `plist:"MinimumOSVersion"`
	Executable       string `plist:"CFBundleExecutable"`
}

// Module is the on-disk framework for one library of a bundle.
type Module struct {
	BundleName string
	Library    Library
	Path       string
	Info       ModuleInfo
}

// Module resolves lib inside b and reads its metadata.
func (b *Bundle) Module(lib Library) (*Module, error) {
	path := filepath.Join(b.Path, lib.Identifier, lib.Path)

	var info ModuleInfo
	if err := readPlist(moduleInfoPath(path), &info); err != nil {
		return nil, err
	}
	if info.Executable == "" {
		return nil, fmt.Errorf("%s: CFBundleExecutable is missing", path)
	}
	if info.MinimumOSVersion == "" {
		return nil, fmt.Errorf("%s: MinimumOSVersion is missing", path)
	}

	return &Module{
		BundleName: b.Name,
		Library:    lib,
		Path:       path,
		Info:       info,
	}, nil
}

// macOS frameworks keep Info.plist under Resources.
func moduleInfoPath(modulePath string) string {
	root := filepath.Join(modulePath, InfoPlist)
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		nested := filepath.Join(modulePath, "Resources", InfoPlist)
		if _, err := os.Stat(nested); err == nil {
			return nested
		}
	}
	return root
}

// TargetTriple returns the compiler target, e.g. "arm64-apple-ios12.0".
func (m *Module) TargetTriple() string {
	return fmt.Sprintf("%s-apple-%s%s", m.Library.PrimaryArchitecture(), m.Library.Platform, m.Info.MinimumOSVersion)
}

// ExecutablePath returns the path of the module's binary.
func (m *Module) ExecutablePath() string {
	return filepath.Join(m.Path, m.Info.Executable)
}

// SearchPath returns the directory to pass as a framework search path for this module.
func (m *Module) SearchPath() string {
	return filepath.Dir(m.Path)
}
