package clipexport

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// grace is added on top of readyAt to allow for the muxer's own
// fragmentation cadence lag (§5 assumes roughly per-second
// fragmentation, but the actual cadence is delegated to the muxer).
const grace = 2 * time.Second

// NewFSNotifyWaiter returns a FragmentWaiter that watches recordingPath's
// directory for writes instead of polling, waking on every fragment
// flush to check whether enough wall-clock time has passed for the
// requested offset to be safely extractable. Falls back to returning
// once the deadline passes regardless, so a missed or coalesced event
// never wedges an export.
func NewFSNotifyWaiter(logger *slog.Logger) FragmentWaiter {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, recordingPath string, readyAt time.Time) error {
		deadline := readyAt.Add(grace)
		if time.Now().After(deadline) {
			return nil
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return waitPlain(ctx, deadline)
		}
		defer watcher.Close()

		if err := watcher.Add(filepath.Dir(recordingPath)); err != nil {
			return waitPlain(ctx, deadline)
		}

		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return waitPlain(ctx, deadline)
				}
				if ev.Name == recordingPath && ev.Op.Has(fsnotify.Write) && !time.Now().Before(readyAt) {
					return nil
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return waitPlain(ctx, deadline)
				}
				logger.Warn("clipexport: fragment watcher error", slog.String("error", err.Error()))
			}
		}
	}
}

func waitPlain(ctx context.Context, deadline time.Time) error {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
