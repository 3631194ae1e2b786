package update

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
)

// Planner decides between an incremental delta patch and a full version
// download, then dispatches the chosen strategy.
type Planner struct {
	client  *api.Client
	applier *Applier
	full    *FullDownloader
}

// NewPlanner creates a delta planner.
func NewPlanner(client *api.Client, applier *Applier, full *FullDownloader) *Planner {
	return &Planner{client: client, applier: applier, full: full}
}

// DownloadDeltaPatch fetches the delta descriptor between two versions and
// executes it. Plans marked as full downloads, and plans with no delta
// available, defer entirely to the full downloader. A delta answering for a
// different fromVersion than requested is a contract violation and aborts
// before any file transfer.
func (p *Planner) DownloadDeltaPatch(ctx context.Context, from, to string) error {
	patch, err := p.client.FetchDelta(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch delta %s -> %s: %w", from, to, err)
	}

	if patch.IsFullDownload() {
		log.WithFields(log.Fields{"from": from, "to": to}).Info("authority requires full download, skipping delta")
		return p.full.DownloadFullVersion(ctx, to)
	}

	if patch.FromVersion != "" && NormalizeVersion(patch.FromVersion) != NormalizeVersion(from) {
		return &ContractMismatchError{Field: "fromVersion", Expected: from, Actual: patch.FromVersion}
	}
	// FromVersion may be blank in legacy responses; fill it in so the
	// pre-patch snapshot records what it was taken against.
	if patch.FromVersion == "" {
		patch.FromVersion = from
	}
	if patch.ToVersion == "" {
		patch.ToVersion = to
	}

	return p.applier.Apply(ctx, patch)
}
