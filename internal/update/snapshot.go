package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rivenlabs/patchd/internal/host"
)

// DefaultSnapshotKeep is the default number of pre-patch snapshots to retain.
const DefaultSnapshotKeep = 10

// Snapshot records the files captured before a patch touched them, so a
// crashed or aborted apply can be undone without a full reinstall from the
// authority.
type Snapshot struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	FromVersion string    `json:"from_version"`
	ToVersion   string    `json:"to_version"`
	Files       []string  `json:"files"`
}

// SnapshotInfo summarizes a snapshot for listing.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Files     int       `json:"files"`
}

// SnapshotManager creates, lists, restores, and prunes pre-patch snapshots.
type SnapshotManager struct {
	dir  string
	root string
}

// NewSnapshotManager creates a manager storing snapshots under dir, capturing
// files from the install root.
func NewSnapshotManager(dir, installRoot string) *SnapshotManager {
	return &SnapshotManager{dir: dir, root: installRoot}
}

// Create captures the current content of every path that exists in the
// install root, before the patch overwrites or removes it. Paths that do not
// exist yet (pure additions) are skipped.
func (m *SnapshotManager) Create(fromVersion, toVersion string, paths []string) (*Snapshot, error) {
	now := time.Now()
	id := now.Format("2006-01-02-150405")

	snapDir := filepath.Join(m.dir, id, "files")
	if err := os.MkdirAll(snapDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	snap := &Snapshot{
		ID:          id,
		CreatedAt:   now,
		FromVersion: fromVersion,
		ToVersion:   toVersion,
	}

	for _, p := range paths {
		src := filepath.Join(m.root, filepath.FromSlash(p))
		data, err := os.ReadFile(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s for snapshot: %w", p, err)
		}

		dst := filepath.Join(snapDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot subdirectory: %w", err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", p, err)
		}
		snap.Files = append(snap.Files, p)
	}

	manifest, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, id, "manifest.json"), manifest, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot manifest: %w", err)
	}

	return snap, nil
}

// List returns all snapshots sorted newest first.
func (m *SnapshotManager) List() ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var infos []SnapshotInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		snap, err := m.load(entry.Name())
		if err != nil {
			continue // skip unreadable snapshots rather than failing the listing
		}
		infos = append(infos, SnapshotInfo{
			ID:        snap.ID,
			CreatedAt: snap.CreatedAt,
			Files:     len(snap.Files),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Restore writes every file captured in the snapshot back through the bridge.
func (m *SnapshotManager) Restore(id string, bridge host.Bridge) error {
	snap, err := m.load(id)
	if err != nil {
		return err
	}

	for _, p := range snap.Files {
		src := filepath.Join(m.dir, id, "files", filepath.FromSlash(p))
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read snapshot file %s: %w", p, err)
		}
		if err := bridge.SaveFile(p, data); err != nil {
			return fmt.Errorf("failed to restore %s: %w", p, err)
		}
	}
	return nil
}

// Delete removes a snapshot by ID.
func (m *SnapshotManager) Delete(id string) error {
	if err := os.RemoveAll(filepath.Join(m.dir, id)); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}
	return nil
}

// Prune removes old snapshots, keeping only the most recent N.
func (m *SnapshotManager) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep count must be non-negative")
	}

	infos, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(infos) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, info := range infos[keep:] {
		if err := m.Delete(info.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (m *SnapshotManager) load(id string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, id, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot manifest %s: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot manifest %s: %w", id, err)
	}
	return &snap, nil
}
