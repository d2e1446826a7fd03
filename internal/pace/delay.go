// Package pace computes request pacing delays: uniform jitter around a base
// and exponential backoff driven by a rolling error count. Computing a delay
// and sleeping it are separate so callers (and tests) can inspect durations
// without suspending.
package pace

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

type Delayer struct{}

func NewDelayer() *Delayer {
	return &Delayer{}
}

// Between returns a duration in seconds drawn uniformly from [min, max].
func (d *Delayer) Between(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	return min + rand.Float64()*(max-min)
}

// Near returns a value in [base*(1-pct), base*(1+pct)]. pct must be in (0, 1).
func (d *Delayer) Near(base, pct float64) float64 {
	pct = clampPct(pct)
	return d.Between(base-base*pct, base+base*pct)
}

// AtLeast returns a value in [base, base*(1+pct)].
func (d *Delayer) AtLeast(base, pct float64) float64 {
	pct = clampPct(pct)
	return d.Between(base, base+base*pct)
}

// AtMost returns a value in [base*(1-pct), base].
func (d *Delayer) AtMost(base, pct float64) float64 {
	pct = clampPct(pct)
	return d.Between(base-base*pct, base)
}

// Backoff returns an exponentially growing delay keyed by the number of
// recent errors: the base is scaled by factor*2^errors (factor alone when
// errors is zero) and jittered upward by pct. Strictly increasing in errors
// for any pct < 1.
func (d *Delayer) Backoff(base float64, factor, errors int, pct float64) float64 {
	if factor < 2 {
		factor = 2
	}
	exponent := float64(factor)
	if errors > 0 {
		exponent = float64(factor) * math.Pow(2, float64(errors))
	}
	return d.AtLeast(base*exponent, pct)
}

// Sleep suspends for the given number of seconds or until ctx is done.
func (d *Delayer) Sleep(ctx context.Context, seconds float64) error {
	if seconds <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func clampPct(pct float64) float64 {
	if pct <= 0 {
		return 0.05
	}
	if pct >= 1 {
		return 0.99
	}
	return pct
}
