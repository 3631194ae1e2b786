package update

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
)

// Transport fetches one remote file at a time, verifies it against its
// descriptor, and delivers it through the host bridge. When the privileged
// bridge cannot write (no host environment), delivery degrades to the
// fallback saver so the user can place the file manually.
type Transport struct {
	client   *api.Client
	bridge   host.Bridge
	fallback host.Bridge
}

// NewTransport creates a file transport. fallback may be nil, in which case
// a bridge write failure is terminal.
func NewTransport(client *api.Client, bridge host.Bridge, fallback host.Bridge) *Transport {
	return &Transport{client: client, bridge: bridge, fallback: fallback}
}

// DownloadFile fetches the descriptor's file, verifies its digest, and
// writes it through the bridge. The verified bytes are returned so callers
// can act on them without re-reading.
func (t *Transport) DownloadFile(ctx context.Context, desc api.FileDescriptor) ([]byte, error) {
	data, err := t.client.FetchFile(ctx, desc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", desc.Path, err)
	}

	if err := VerifyHash(desc.Path, data, desc.Hash); err != nil {
		return nil, err
	}

	if err := t.deliver(desc.Path, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (t *Transport) deliver(path string, data []byte) error {
	err := t.bridge.SaveFile(path, data)
	if err == nil {
		return nil
	}
	if t.fallback == nil || !errors.Is(err, host.ErrUnsupported) {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	log.WithField("path", path).Warn("host file bridge unavailable, saving for manual placement")
	if err := t.fallback.SaveFile(path, data); err != nil {
		return fmt.Errorf("fallback save of %s failed: %w", path, err)
	}
	return nil
}
