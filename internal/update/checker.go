package update

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
)

// DefaultCheckInterval is how often the periodic version check runs when not
// configured otherwise.
const DefaultCheckInterval = 24 * time.Hour

// Notification announces an available update to external consumers. Delivery
// is best-effort and never blocks the check itself.
type Notification struct {
	LatestVersion string
	Changelog     string
	ForceUpdate   bool
}

// Checker asks the update authority whether a newer version exists. It never
// surfaces errors to its caller: the UI embedding this client must not crash
// because the authority is unreachable, so failures are logged and reported
// as "no update".
type Checker struct {
	client   *api.Client
	bridge   host.Bridge
	interval time.Duration

	versionOnce sync.Once
	version     string

	notify   chan Notification
	stop     chan struct{}
	stopOnce sync.Once
}

// NewChecker creates a checker. interval <= 0 selects DefaultCheckInterval.
func NewChecker(client *api.Client, bridge host.Bridge, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Checker{
		client:   client,
		bridge:   bridge,
		interval: interval,
		notify:   make(chan Notification, 8),
		stop:     make(chan struct{}),
	}
}

// CurrentVersion resolves the running version from the host on first call
// and caches it for the life of the process.
func (c *Checker) CurrentVersion() string {
	c.versionOnce.Do(func() {
		v, err := c.bridge.CurrentVersion()
		if err != nil {
			log.WithError(err).Error("failed to resolve current version from host")
			return
		}
		c.version = NormalizeVersion(v)
	})
	return c.version
}

// CheckForUpdates performs one version check. Any network or parse failure
// is swallowed into a negative result; it is observable only in the log.
func (c *Checker) CheckForUpdates(ctx context.Context) api.UpdateCheckResult {
	current := c.CurrentVersion()

	result, err := c.client.CheckUpdate(ctx, current)
	if err != nil {
		log.WithError(err).Warn("update check failed")
		return api.UpdateCheckResult{}
	}

	if result.UpdateAvailable {
		if result.ForceUpdate {
			// Advisory only: surfaced to consumers, not enforced here.
			log.WithField("version", result.LatestVersion).Warn("authority marked update as mandatory")
		}
		c.announce(Notification{
			LatestVersion: result.LatestVersion,
			Changelog:     result.Changelog,
			ForceUpdate:   result.ForceUpdate,
		})
	}
	return *result
}

// Notifications is the stream of update-available announcements.
func (c *Checker) Notifications() <-chan Notification {
	return c.notify
}

// Start launches the periodic check loop. One check fires immediately, then
// every interval until Stop.
func (c *Checker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.CheckForUpdates(ctx)
		for {
			select {
			case <-ticker.C:
				c.CheckForUpdates(ctx)
			case <-c.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the periodic check loop. Safe to call more than once.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Checker) announce(n Notification) {
	select {
	case c.notify <- n:
	default:
		log.WithField("version", n.LatestVersion).Debug("notification channel full, dropping update announcement")
	}
}
