package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactsDir is the directory at the root of a release archive that holds the bundles.
const ArtifactsDir = "artifacts"

// Workspace is a private directory holding one unpacked SDK archive.
// Close removes it.
type Workspace struct {
	Dir string
}

// ArtifactsDir returns the path of the unpacked artifacts directory.
func (w *Workspace) ArtifactsDir() string {
	return filepath.Join(w.Dir, ArtifactsDir)
}

// Close removes the workspace directory and everything in it.
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

// Unpack extracts a zip archive into a new temporary directory.
func Unpack(archivePath string) (*Workspace, error) {
	if !strings.EqualFold(filepath.Ext(archivePath), ".zip") {
		return nil, &UnsupportedFormatError{Path: archivePath}
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	dir, err := os.MkdirTemp("", "apiguard-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	ws := &Workspace{Dir: dir}

	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("resolving temp dir: %w", err)
	}
	for _, f := range zr.File {
		if err := extract(root, f); err != nil {
			_ = ws.Close()
			return nil, err
		}
	}
	return ws, nil
}

// Locate unpacks archivePath and opens the bundle called name from its artifacts.
// The caller owns the returned workspace.
func Locate(archivePath, name string) (*Workspace, *Bundle, error) {
	ws, err := Unpack(archivePath)
	if err != nil {
		return nil, nil, err
	}
	b, err := Open(filepath.Join(ws.ArtifactsDir(), name+Extension))
	if err != nil {
		_ = ws.Close()
		return nil, nil, err
	}
	return ws, b, nil
}

func extract(root string, f *zip.File) error {
	target, err := safeJoin(root, f.Name)
	if err != nil {
		return err
	}

	if err := checkResolved(root, target, f.Name); err != nil {
		return err
	}

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(target, 0o755)
	case mode&os.ModeSymlink != 0:
		return extractSymlink(target, f)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s in archive: %w", f.Name, err)
	}
	defer rc.Close()

	perm := mode.Perm() | 0o600
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}

// Frameworks built for macOS keep Versions/Current style symlinks. Only
// relative links that never climb are kept, so a chain of them stays inside
// the directory it was written to.
func extractSymlink(target string, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s in archive: %w", f.Name, err)
	}
	defer rc.Close()
	link, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return fmt.Errorf("reading symlink %s: %w", f.Name, err)
	}

	dest := string(link)
	if filepath.IsAbs(dest) || strings.HasPrefix(dest, "/") || climbs(dest) {
		return fmt.Errorf("symlink %s points outside the archive: %s", f.Name, dest)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", f.Name, err)
	}
	return os.Symlink(dest, target)
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

// checkResolved follows the links already on disk for the deepest existing
// ancestor of target and rejects the entry if it lands outside root.
func checkResolved(root, target, name string) error {
	dir := filepath.Dir(target)
	for {
		if _, err := os.Lstat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", name, err)
	}
	if !within(root, resolved) {
		return fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return nil
}

func climbs(link string) bool {
	for _, part := range strings.FieldsFunc(link, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
