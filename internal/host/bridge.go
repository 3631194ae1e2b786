// Package host defines the capability contract between the updater and the
// host process, plus a default OS-backed implementation. The privileged
// operations (file writes into the install root, script reload, restart) are
// owned by the host; the updater only calls through this interface and must
// tolerate a host that cannot provide them.
package host

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned by bridges that cannot provide a capability.
// Callers degrade (e.g. fall back to a manual save location) where feasible.
var ErrUnsupported = errors.New("capability not supported by host")

// Bridge is the host capability contract.
type Bridge interface {
	// SaveFile writes data to path (relative to the install root).
	SaveFile(path string, data []byte) error
	// DeleteFile removes path from the install root. Missing files are not
	// an error.
	DeleteFile(path string) error
	// ReloadScript asks the host runtime to re-evaluate a script in place.
	ReloadScript(path string) error
	// RestartProcess restarts the host process. It does not return on
	// success.
	RestartProcess() error
	// OpenFolder reveals a directory to the user.
	OpenFolder(path string) error
	// CurrentVersion reports the installed version string.
	CurrentVersion() (string, error)
}

var (
	_ Bridge = (*OSBridge)(nil)
	_ Bridge = (*FallbackSaver)(nil)
)

// VersionFileName is where OSBridge persists the installed version,
// relative to the install root.
const VersionFileName = ".version"

// OSBridge implements Bridge against a local install root. File writes are
// staged: content lands in a .partial sibling first and is renamed into
// place, so a crash mid-write never leaves a truncated file at the final
// path.
type OSBridge struct {
	root string

	// restart and exit are swappable for tests.
	restart func() error
	exit    func(int)
}

// NewOSBridge creates a bridge rooted at the given install directory.
func NewOSBridge(root string) *OSBridge {
	b := &OSBridge{
		root: root,
		exit: os.Exit,
	}
	b.restart = b.respawn
	return b
}

// WithRestartFunc substitutes the restart behavior (for testing).
func (b *OSBridge) WithRestartFunc(restart func() error, exit func(int)) *OSBridge {
	b.restart = restart
	b.exit = exit
	return b
}

// Root returns the install root.
func (b *OSBridge) Root() string {
	return b.root
}

func (b *OSBridge) SaveFile(path string, data []byte) error {
	dst, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	part := dst + ".partial"
	if err := os.WriteFile(part, data, 0644); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func (b *OSBridge) DeleteFile(path string) error {
	dst, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// ReloadScript is not something a plain OS bridge can do; only an embedding
// host runtime can re-evaluate its own scripts.
func (b *OSBridge) ReloadScript(string) error {
	return ErrUnsupported
}

// RestartProcess spawns a fresh copy of the running executable and exits.
func (b *OSBridge) RestartProcess() error {
	if err := b.restart(); err != nil {
		return fmt.Errorf("failed to restart process: %w", err)
	}
	b.exit(0)
	return nil
}

func (b *OSBridge) respawn() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func (b *OSBridge) OpenFolder(path string) error {
	dst, err := b.resolve(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("folder not accessible: %w", err)
	}
	// Revealing a folder in a file manager is desktop-environment specific;
	// the embedding host overrides this where it matters.
	return ErrUnsupported
}

func (b *OSBridge) CurrentVersion() (string, error) {
	data, err := os.ReadFile(filepath.Join(b.root, VersionFileName))
	if err != nil {
		return "", fmt.Errorf("failed to read version file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteVersion records the installed version in the install root.
func (b *OSBridge) WriteVersion(version string) error {
	return b.SaveFile(VersionFileName, []byte(version+"\n"))
}

// resolve joins path against the root and rejects escapes.
func (b *OSBridge) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path %q escapes install root", path)
	}
	return filepath.Join(b.root, clean), nil
}

// FallbackSaver is the degraded bridge used when no privileged host is
// available: saves land in a plain downloads directory for the user to move
// manually, and every other capability reports ErrUnsupported.
type FallbackSaver struct {
	dir     string
	version string
}

// NewFallbackSaver creates a fallback bridge saving into dir and reporting
// the given version string.
func NewFallbackSaver(dir, version string) *FallbackSaver {
	return &FallbackSaver{dir: dir, version: version}
}

func (f *FallbackSaver) SaveFile(path string, data []byte) error {
	// Flatten the path: a downloads directory has no install layout.
	name := strings.ReplaceAll(filepath.ToSlash(path), "/", "__")
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func (f *FallbackSaver) DeleteFile(string) error   { return ErrUnsupported }
func (f *FallbackSaver) ReloadScript(string) error { return ErrUnsupported }
func (f *FallbackSaver) RestartProcess() error     { return ErrUnsupported }
func (f *FallbackSaver) OpenFolder(string) error   { return ErrUnsupported }
func (f *FallbackSaver) CurrentVersion() (string, error) {
	if f.version == "" {
		return "", fmt.Errorf("version unknown: %w", ErrUnsupported)
	}
	return f.version, nil
}
