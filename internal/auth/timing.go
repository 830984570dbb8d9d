package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// FailureDelay pads failed sign-ins to a minimum duration so an unknown
// account answers as slowly as a wrong password checked against bcrypt.
type FailureDelay struct {
	floor  time.Duration
	jitter time.Duration
}

// NewFailureDelay creates a FailureDelay. Zero floor and jitter disable padding.
func NewFailureDelay(floor, jitter time.Duration) *FailureDelay {
	return &FailureDelay{floor: floor, jitter: jitter}
}

// Target returns the padded duration for one failure: floor plus random jitter
func (d *FailureDelay) Target() time.Duration {
	target := d.floor
	if d.jitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(d.jitter)))
		if err == nil {
			target += time.Duration(n.Int64())
		}
	}
	return target
}

// PadSince blocks until Target has elapsed since start, or ctx is done
func (d *FailureDelay) PadSince(ctx context.Context, start time.Time) {
	if d == nil {
		return
	}
	remaining := d.Target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
