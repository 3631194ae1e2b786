package update

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rivenlabs/patchd/internal/host"
)

// writeInstallFile seeds a file under an install root.
func writeInstallFile(t *testing.T, root, path, content string) {
	t.Helper()
	dst := filepath.Join(root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(dst, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// fakeBridge records every host capability call for assertions.
type fakeBridge struct {
	mu        sync.Mutex
	files     map[string][]byte
	ops       []string // chronological "save:path" / "delete:path" entries
	version   string
	verErr    error
	saveErr   error
	restarted bool
}

var _ host.Bridge = (*fakeBridge)(nil)

func newFakeBridge(version string) *fakeBridge {
	return &fakeBridge{files: map[string][]byte{}, version: version}
}

func (b *fakeBridge) SaveFile(path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.files[path] = append([]byte(nil), data...)
	b.ops = append(b.ops, "save:"+path)
	return nil
}

func (b *fakeBridge) DeleteFile(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, path)
	b.ops = append(b.ops, "delete:"+path)
	return nil
}

func (b *fakeBridge) ReloadScript(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, "reload:"+path)
	return nil
}

func (b *fakeBridge) RestartProcess() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.restarted = true
	b.ops = append(b.ops, "restart")
	return nil
}

func (b *fakeBridge) OpenFolder(string) error { return host.ErrUnsupported }

func (b *fakeBridge) CurrentVersion() (string, error) {
	if b.verErr != nil {
		return "", b.verErr
	}
	return b.version, nil
}

func (b *fakeBridge) snapshotOps() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ops...)
}
