package update

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
)

// Applier executes a delta changeset. Added files land first, then modified
// files, and removals run only after both transfer sets completed: a path
// that appears in both added and removed (a rename-like change) must not be
// destroyed before its replacement is in place.
//
// The first file failing transfer or verification aborts the whole apply.
// Files already written stay written; undoing is the caller's job via the
// pre-patch snapshot or a rollback.
type Applier struct {
	transport *Transport
	bridge    host.Bridge
	snapshots *SnapshotManager
}

// NewApplier creates an applier. snapshots may be nil to skip the pre-patch
// capture (e.g. in the degraded no-host mode).
func NewApplier(transport *Transport, bridge host.Bridge, snapshots *SnapshotManager) *Applier {
	return &Applier{transport: transport, bridge: bridge, snapshots: snapshots}
}

// Apply executes the changeset in add, modify, remove order.
func (a *Applier) Apply(ctx context.Context, patch *api.DeltaPatch) error {
	if a.snapshots != nil {
		touched := make([]string, 0, len(patch.Modified)+len(patch.Removed))
		for p := range patch.Modified {
			touched = append(touched, p)
		}
		touched = append(touched, patch.Removed...)

		snap, err := a.snapshots.Create(patch.FromVersion, patch.ToVersion, touched)
		if err != nil {
			return fmt.Errorf("failed to capture pre-patch snapshot: %w", err)
		}
		log.WithFields(log.Fields{"snapshot": snap.ID, "files": len(snap.Files)}).Debug("captured pre-patch snapshot")
	}

	if err := a.transferAll(ctx, patch.Added, "add"); err != nil {
		return err
	}
	if err := a.transferAll(ctx, patch.Modified, "modify"); err != nil {
		return err
	}

	removed := append([]string(nil), patch.Removed...)
	sort.Strings(removed)
	for _, p := range removed {
		if err := a.bridge.DeleteFile(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		log.WithField("path", p).Debug("removed file")
	}

	log.WithFields(log.Fields{
		"from":     patch.FromVersion,
		"to":       patch.ToVersion,
		"added":    len(patch.Added),
		"modified": len(patch.Modified),
		"removed":  len(patch.Removed),
	}).Info("delta patch applied")
	return nil
}

// transferAll downloads and verifies every descriptor in the set, in sorted
// path order so repeated applies behave deterministically.
func (a *Applier) transferAll(ctx context.Context, files map[string]api.FileDescriptor, action string) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		desc := files[p]
		if desc.Path == "" {
			desc.Path = p
		}
		if _, err := a.transport.DownloadFile(ctx, desc); err != nil {
			return fmt.Errorf("%s of %s failed: %w", action, p, err)
		}
		log.WithFields(log.Fields{"path": p, "action": action}).Debug("file transferred")
	}
	return nil
}
