package notify

import (
	"context"
	"time"

	"github.com/luckytyphlosion/countdown-notifs/internal/logging"
	"github.com/luckytyphlosion/countdown-notifs/internal/metrics"
)

// Dispatcher hands status changes to the selected notifier, recording the
// outcome. Errors are returned unchanged so the poll loop can back off.
type Dispatcher struct {
	notifier Notifier
}

// NewDispatcher wraps n.
func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{notifier: n}
}

// Name returns the wrapped notifier's name.
func (d *Dispatcher) Name() string { return d.notifier.Name() }

// Dispatch announces status through the wrapped notifier. A failure is only
// counted; the caller logs it.
func (d *Dispatcher) Dispatch(ctx context.Context, status string) error {
	name := d.notifier.Name()
	start := time.Now()
	if err := d.notifier.OnStatusChange(ctx, status); err != nil {
		metrics.IncNotification(name, false)
		return err
	}
	metrics.IncNotification(name, true)
	if pc, ok := d.notifier.(interface{ PlayerCount() int }); ok {
		metrics.SetPlayerCount(pc.PlayerCount())
	}
	logging.Get().Debug().Str("service", name).Dur("took", time.Since(start)).Msg("notification sent")
	return nil
}
