package update

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
)

// Options configures an Updater. Client and Bridge are required; everything
// else has a working default.
type Options struct {
	Client        *api.Client
	Bridge        host.Bridge
	Fallback      host.Bridge       // degraded save target, optional
	SnapshotDir   string            // empty disables pre-patch snapshots
	InstallRoot   string
	CheckInterval time.Duration
	SnapshotKeep  int // snapshots retained after a successful patch, 0 disables pruning
}

// Updater composes the whole update engine behind a single re-entrancy
// guard: a check, delta apply, full download, or rollback can never overlap
// with another operation.
type Updater struct {
	checker      *Checker
	planner      *Planner
	full         *FullDownloader
	rollback     *Rollback
	snapshots    *SnapshotManager
	snapshotKeep int
	guard        *Guard
}

// NewUpdater wires an update engine from injected dependencies.
func NewUpdater(opts Options) *Updater {
	var snapshots *SnapshotManager
	if opts.SnapshotDir != "" {
		snapshots = NewSnapshotManager(opts.SnapshotDir, opts.InstallRoot)
	}

	transport := NewTransport(opts.Client, opts.Bridge, opts.Fallback)
	applier := NewApplier(transport, opts.Bridge, snapshots)
	full := NewFullDownloader(opts.Client, transport)

	return &Updater{
		checker:      NewChecker(opts.Client, opts.Bridge, opts.CheckInterval),
		planner:      NewPlanner(opts.Client, applier, full),
		full:         full,
		rollback:     NewRollback(opts.Client, opts.Bridge),
		snapshots:    snapshots,
		snapshotKeep: opts.SnapshotKeep,
		guard:        NewGuard(),
	}
}

// Checker exposes the version-check component, including its notification
// stream and periodic loop.
func (u *Updater) Checker() *Checker {
	return u.checker
}

// Snapshots exposes the pre-patch snapshot manager, nil when disabled.
func (u *Updater) Snapshots() *SnapshotManager {
	return u.snapshots
}

// Phase reports what the engine is currently doing.
func (u *Updater) Phase() Phase {
	return u.guard.Phase()
}

// CheckForUpdates performs one guarded version check. Like the underlying
// checker it never fails; if the guard is busy the check is skipped and an
// empty result returned.
func (u *Updater) CheckForUpdates(ctx context.Context) api.UpdateCheckResult {
	if err := u.guard.Begin(PhaseChecking); err != nil {
		return api.UpdateCheckResult{}
	}
	defer u.guard.End()
	return u.checker.CheckForUpdates(ctx)
}

// DownloadDeltaPatch applies the changeset between two versions, falling
// back to a full download when the authority says so. After a successful
// apply old snapshots beyond the retention limit are pruned.
func (u *Updater) DownloadDeltaPatch(ctx context.Context, from, to string) error {
	if err := u.guard.Begin(PhasePatching); err != nil {
		return err
	}
	defer u.guard.End()

	if err := u.planner.DownloadDeltaPatch(ctx, from, to); err != nil {
		return err
	}

	if u.snapshots != nil && u.snapshotKeep > 0 {
		if removed, err := u.snapshots.Prune(u.snapshotKeep); err != nil {
			log.WithError(err).Warn("snapshot pruning failed after patch")
		} else if removed > 0 {
			log.WithField("removed", removed).Debug("pruned old snapshots")
		}
	}
	return nil
}

// DownloadFullVersion fetches and verifies every file of a version.
func (u *Updater) DownloadFullVersion(ctx context.Context, version string) error {
	if err := u.guard.Begin(PhasePatching); err != nil {
		return err
	}
	defer u.guard.End()
	return u.full.DownloadFullVersion(ctx, version)
}

// RollbackVersion reverts to a prior version and restarts the host.
func (u *Updater) RollbackVersion(ctx context.Context, version string) error {
	if err := u.guard.Begin(PhaseRollingBack); err != nil {
		return err
	}
	defer u.guard.End()
	return u.rollback.RollbackVersion(ctx, version)
}
