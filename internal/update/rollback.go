package update

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
)

// Rollback reverts the install to a prior version through the update
// authority and then restarts the host process. The restart is unconditional:
// it is the mechanism by which the reverted state becomes effective, and the
// authority's response body is not consulted first.
type Rollback struct {
	client *api.Client
	bridge host.Bridge
}

// NewRollback creates a rollback manager.
func NewRollback(client *api.Client, bridge host.Bridge) *Rollback {
	return &Rollback{client: client, bridge: bridge}
}

// RollbackVersion issues the rollback request and restarts the host. A
// failed POST is logged but does not stop the restart; whether the authority
// actually reverted is an external trust boundary.
func (r *Rollback) RollbackVersion(ctx context.Context, targetVersion string) error {
	if err := r.client.Rollback(ctx, targetVersion); err != nil {
		log.WithError(err).WithField("version", targetVersion).Error("rollback request failed, restarting anyway")
	} else {
		log.WithField("version", targetVersion).Info("rollback requested")
	}

	return r.bridge.RestartProcess()
}
