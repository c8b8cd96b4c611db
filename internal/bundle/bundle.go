package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// Extension is the directory suffix of a multi-platform framework bundle.
const Extension = ".xcframework"

// InfoPlist is the metadata file name at the root of bundles and modules.
const InfoPlist = "Info.plist"

// VariantSimulator marks a library built for a simulator.
const VariantSimulator = "simulator"

// Library is one platform variant of a bundle, as listed in its manifest.
type Library struct {
	Identifier    string   `plist:"LibraryIdentifier"`
	Path          string   `plist:"LibraryPath"`
	Platform      string   `plist:"SupportedPlatform"`
	Variant       string   `plist:"SupportedPlatformVariant,omitempty"`
	Architectures []string `plist:"SupportedArchitectures"`
}

// IsDevice reports whether the library targets real hardware (no platform variant).
func (l Library) IsDevice() bool {
	return l.Variant == ""
}

// IsSimulator reports whether the library targets a simulator.
func (l Library) IsSimulator() bool {
	return l.Variant == VariantSimulator
}

// PrimaryArchitecture returns the first supported architecture.
func (l Library) PrimaryArchitecture() string {
	if len(l.Architectures) == 0 {
		return ""
	}
	return l.Architectures[0]
}

// Manifest is the Info.plist at the root of a bundle.
type Manifest struct {
	AvailableLibraries []Library `plist:"AvailableLibraries"`
}

// Bundle is a framework bundle on disk with its library variants.
type Bundle struct {
	Name      string
	Path      string
	Libraries []Library
}

// Open reads the bundle at path.
func Open(path string) (*Bundle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a valid %s bundle", abs, Extension)
	}

	var m Manifest
	if err := readPlist(filepath.Join(abs, InfoPlist), &m); err != nil {
		return nil, err
	}
	return &Bundle{
		Name:      NameOf(abs),
		Path:      abs,
		Libraries: m.AvailableLibraries,
	}, nil
}

// NameOf returns the bundle name for a path: its base name up to the first dot.
func NameOf(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// DeviceModule resolves the single device library for platform.
func (b *Bundle) DeviceModule(platform string) (*Module, error) {
	var matches []Library
	for _, lib := range b.Libraries {
		if lib.Platform == platform && lib.IsDevice() {
			matches = append(matches, lib)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NoMatchingVariantError{Bundle: b.Name, Platform: platform}
	case 1:
		return b.Module(matches[0])
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.Identifier
		}
		return nil, &AmbiguousVariantError{Bundle: b.Name, Platform: platform, Identifiers: ids}
	}
}

func readPlist(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if _, err := plist.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
