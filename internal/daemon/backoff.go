package daemon

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// failureBackoff doubles the wait after every consecutive failure and reports
// when the next wait would exceed the ceiling.
type failureBackoff struct {
	b       *backoff.ExponentialBackOff
	ceiling time.Duration

	// wait the next failure will get; the backoff keeps its own copy unexported
	upcoming time.Duration
}

func newFailureBackoff(initial, ceiling time.Duration) *failureBackoff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     initial,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Duration(math.MaxInt64),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return &failureBackoff{b: b, ceiling: ceiling, upcoming: initial}
}

// current returns the wait the next failure will get.
func (f *failureBackoff) current() time.Duration {
	return f.upcoming
}

// next returns the wait for this failure and whether the loop must give up
// once it has been served.
func (f *failureBackoff) next() (time.Duration, bool) {
	wait := f.b.NextBackOff()
	f.upcoming = time.Duration(float64(wait) * f.b.Multiplier)
	return wait, f.upcoming > f.ceiling
}

func (f *failureBackoff) reset() {
	f.b.Reset()
	f.upcoming = f.b.InitialInterval
}
