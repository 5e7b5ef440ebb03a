package refresh

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MidnightScheduler runs the refresh once at startup and then once at every
// UTC midnight, so each run lands on a fresh snapshot day.
type MidnightScheduler struct {
	Runner *Runner
	Log    *zap.Logger
}

// Start blocks until ctx is cancelled, driving one refresh per UTC day. A
// failed run is logged and retried at the next midnight; the daily cadence is
// never abandoned over a single bad day.
func (m *MidnightScheduler) Start(ctx context.Context) {
	// Run immediately once at startup
	m.runOnce(ctx)

	// Wait until next UTC midnight
	now := time.Now().UTC()
	nextMidnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)

	select {
	case <-time.After(time.Until(nextMidnight)):
	case <-ctx.Done():
		return
	}

	// Then run once every 24 hours
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		m.runOnce(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (m *MidnightScheduler) runOnce(ctx context.Context) {
	day := time.Now().UTC()
	if err := m.Runner.Run(ctx, day); err != nil {
		m.Log.Error("scheduled refresh failed",
			zap.Time("snapshot_date", day),
			zap.Error(err))
	}
}
