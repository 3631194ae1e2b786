package update

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
)

// FullDownloader fetches a complete version manifest and transfers every
// listed file. Transfers run sequentially: full downloads are the
// exceptional slow path and simplicity wins over throughput here.
type FullDownloader struct {
	client    *api.Client
	transport *Transport
}

// NewFullDownloader creates a full-version downloader.
func NewFullDownloader(client *api.Client, transport *Transport) *FullDownloader {
	return &FullDownloader{client: client, transport: transport}
}

// DownloadFullVersion fetches the manifest for version and transfers and
// verifies every file in it. The first integrity or network failure aborts
// the operation.
func (d *FullDownloader) DownloadFullVersion(ctx context.Context, version string) error {
	info, err := d.client.FetchManifest(ctx, version)
	if err != nil {
		return fmt.Errorf("failed to fetch manifest for %s: %w", version, err)
	}

	for _, desc := range info.Files {
		if _, err := d.transport.DownloadFile(ctx, desc); err != nil {
			return fmt.Errorf("full download of %s aborted at %s: %w", version, desc.Path, err)
		}
	}

	log.WithFields(log.Fields{"version": version, "files": len(info.Files)}).Info("full version downloaded")
	return nil
}
