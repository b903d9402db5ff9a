package app

import (
	"context"
	"time"
)

const pingTimeout = 3 * time.Second

// StartPresenceWatcher pings the service every interval and flips the sync
// indicator between Offline and Synced. It blocks until ctx is done.
func (c *Controller) StartPresenceWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckPresence(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckPresence runs one ping. The ping itself happens outside the lock so
// a slow network never stalls the handlers.
func (c *Controller) CheckPresence(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := c.svc.Ping(pctx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if c.state.Sync != SyncOffline {
			c.logger.Info(ctx, "service unreachable", "error", err)
		}
		c.state.Sync = SyncOffline
		return
	}
	c.state.Sync = SyncSynced
}
