// Package bundletest builds framework bundles and release archives on disk for tests.
package bundletest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"

	"github.com/dshills/apiguard/internal/bundle"
)

// Framework describes a bundle to write.
type Framework struct {
	Name             string
	Libraries        []bundle.Library
	MinimumOSVersion string
}

// DeviceLibrary returns the usual iOS device library for a framework name.
func DeviceLibrary(name string) bundle.Library {
	return bundle.Library{
		Identifier:    "ios-arm64",
		Path:          name + ".framework",
		Platform:      "ios",
		Architectures: []string{"arm64"},
	}
}

// SimulatorLibrary returns the usual iOS simulator library for a framework name.
func SimulatorLibrary(name string) bundle.Library {
	return bundle.Library{
		Identifier:    "ios-arm64_x86_64-simulator",
		Path:          name + ".framework",
		Platform:      "ios",
		Variant:       bundle.VariantSimulator,
		Architectures: []string{"arm64", "x86_64"},
	}
}

// Write creates <dir>/<Name>.xcframework with a manifest, one module per
// library, and an empty executable in each. It returns the bundle path.
func Write(t testing.TB, dir string, fw Framework) string {
	t.Helper()
	minOS := fw.MinimumOSVersion
	if minOS == "" {
		minOS = "12.0"
	}

	root := filepath.Join(dir, fw.Name+bundle.Extension)
	writePlist(t, filepath.Join(root, bundle.InfoPlist), bundle.Manifest{AvailableLibraries: fw.Libraries})

	for _, lib := range fw.Libraries {
		modulePath := filepath.Join(root, lib.Identifier, lib.Path)
		writePlist(t, filepath.Join(modulePath, bundle.InfoPlist), bundle.ModuleInfo{
			MinimumOSVersion: minOS,
			Executable:       fw.Name,
		})
		if err := os.WriteFile(filepath.Join(modulePath, fw.Name), nil, 0o755); err != nil {
			t.Fatalf("writing executable: %v", err)
		}
	}
	return root
}

func writePlist(t testing.TB, path string, v interface{}) {
	t.Helper()
	data, err := plist.Marshal(v, plist.XMLFormat)
	if err != nil {
		t.Fatalf("marshaling plist: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// Zip archives everything under srcDir into dst, with entry names relative to srcDir.
func Zip(t testing.TB, srcDir, dst string) {
	t.Helper()
	out, err := os.Create(dst)
	if err != nil {
		t.Fatalf("creating archive: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == srcDir {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if info.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		t.Fatalf("zipping %s: %v", srcDir, err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
}

// Release writes a release archive whose artifacts directory holds the given
// frameworks and returns the archive path.
func Release(t testing.TB, frameworks ...Framework) string {
	t.Helper()
	staging := t.TempDir()
	artifacts := filepath.Join(staging, bundle.ArtifactsDir)
	for _, fw := range frameworks {
		Write(t, artifacts, fw)
	}
	archive := filepath.Join(t.TempDir(), "release.zip")
	Zip(t, staging, archive)
	return archive
}
