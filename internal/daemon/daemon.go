package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/luckytyphlosion/countdown-notifs/internal/config"
	"github.com/luckytyphlosion/countdown-notifs/internal/logging"
	"github.com/luckytyphlosion/countdown-notifs/internal/metrics"
	"github.com/luckytyphlosion/countdown-notifs/internal/notify"
	"github.com/luckytyphlosion/countdown-notifs/internal/status"
)

// ErrTooManyFailures is returned by Run when consecutive failures pushed the
// backoff past its ceiling.
var ErrTooManyFailures = errors.New("too many consecutive failures")

// Fetcher retrieves the status page.
type Fetcher interface {
	Fetch(ctx context.Context) (status.Result, error)
}

// Daemon is the poll loop: fetch, detect a change, notify, sleep.
type Daemon struct {
	cfg        *config.Settings
	fetcher    Fetcher
	dispatcher *notify.Dispatcher
	detector   status.Detector
	backoff    *failureBackoff

	Now   func() time.Time                                 // injectable clock for testing
	sleep func(ctx context.Context, d time.Duration) error // injectable for testing
}

// New creates a daemon polling with fetcher and announcing through n. It
// refuses settings that fail cfg.Check.
func New(cfg *config.Settings, fetcher Fetcher, n notify.Notifier) (*Daemon, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	d := &Daemon{
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: notify.NewDispatcher(n),
		backoff:    newFailureBackoff(cfg.BackoffInitial, cfg.BackoffCeiling),
		Now:        time.Now,
		sleep:      sleepCtx,
	}

	for _, w := range cfg.Validate() {
		logging.Get().Warn().Str("warning", w).Msg("config validation")
	}
	return d, nil
}

// LastStatus returns the last status that was successfully announced.
func (d *Daemon) LastStatus() string {
	return d.detector.Last()
}

// Run polls until ctx is cancelled or the failure backoff exceeds its ceiling.
// It only returns ctx.Err() or ErrTooManyFailures.
func (d *Daemon) Run(ctx context.Context) error {
	logging.Get().Info().
		Str("url", d.cfg.StatusURL).
		Str("notifier", d.dispatcher.Name()).
		Dur("interval", d.cfg.PollInterval).
		Msg("starting countdown status poller")

	for {
		wait, err := d.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait, giveUp := d.backoff.next()
			metrics.SetBackoff(wait)
			logging.Get().Error().Err(err).Dur("sleep", wait).Msg("poll cycle failed")
			if err := d.sleep(ctx, wait); err != nil {
				return err
			}
			if giveUp {
				logging.Get().WithLevel(zerolog.FatalLevel).
					Dur("next_backoff", d.backoff.current()).
					Dur("ceiling", d.cfg.BackoffCeiling).
					Msg("failures happened too many times, exiting")
				return ErrTooManyFailures
			}
			continue
		}

		d.backoff.reset()
		metrics.SetBackoff(0)
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// RunOnce performs a single poll cycle and returns how long to wait before the
// next one. A non-nil error means the cycle failed and the caller should back off.
func (d *Daemon) RunOnce(ctx context.Context) (time.Duration, error) {
	metrics.SetLastPoll(d.Now())

	res, err := d.fetcher.Fetch(ctx)
	if err != nil {
		metrics.IncPoll(metrics.OutcomeFailure)
		return 0, err
	}

	switch res.Kind {
	case status.KindEmptyBody:
		logging.Get().Warn().Msg("status page returned empty")
		metrics.IncPoll(metrics.OutcomeEmptyBody)
		return d.cfg.EmptyBodyInterval, nil
	case status.KindHTTPError:
		logging.Get().Warn().Int("code", res.StatusCode).Str("reason", res.Reason).Msg("status page returned an error")
		metrics.IncPoll(metrics.OutcomeHTTPError)
		return d.cfg.HTTPErrorInterval, nil
	}

	if res.Truncated {
		logging.Get().Warn().Int("limit_bytes", len(res.Body)).Msg("status page body truncated")
	}

	s, err := status.ExtractStatus(res.Body)
	if err != nil {
		logging.Get().Warn().Err(err).Msg("could not find countdown status message")
		metrics.IncPoll(metrics.OutcomeMarkerMissing)
		return d.cfg.PollInterval, nil
	}

	if d.detector.Changed(s) {
		if err := d.dispatcher.Dispatch(ctx, s); err != nil {
			metrics.IncPoll(metrics.OutcomeFailure)
			return 0, err
		}
		d.detector.Commit(s)
		metrics.IncStatusChange()
		logging.Get().Info().Str("status", s).Msg("countdown status changed")
	} else {
		logging.Get().Debug().Str("status", s).Msg("countdown status unchanged")
	}
	metrics.IncPoll(metrics.OutcomeStatus)
	return d.cfg.PollInterval, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
