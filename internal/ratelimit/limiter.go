// Package ratelimit gates external work per channel with layered token
// buckets. One shared Limiter instance serves every job and worker in the
// process, so limits hold globally rather than per job.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BucketConfig describes one token bucket: Capacity tokens, refilled by
// RefillAmount every RefillInterval. A zero RefillAmount never refills, which
// is useful in tests.
type BucketConfig struct {
	Capacity       int
	RefillInterval time.Duration
	RefillAmount   int
}

func (c BucketConfig) limit() rate.Limit {
	if c.RefillAmount <= 0 || c.RefillInterval <= 0 {
		return 0
	}
	return rate.Limit(float64(c.RefillAmount) / c.RefillInterval.Seconds())
}

// PerWindow is a convenience constructor for the common "n per window" shape.
func PerWindow(n int, window time.Duration) BucketConfig {
	return BucketConfig{Capacity: n, RefillInterval: window, RefillAmount: n}
}

// ErrUnknownChannel is returned when acquiring on a channel that was never configured.
var ErrUnknownChannel = errors.New("rate limit channel not configured")

// Limiter is a process-wide, channel-keyed rate limiter. A channel may carry
// several layered buckets (e.g. per-minute and per-hour); an acquisition must
// be admitted by every layer.
type Limiter struct {
	mu       sync.RWMutex
	channels map[string][]*rate.Limiter
}

// New creates a Limiter with no channels configured.
func New() *Limiter {
	return &Limiter{channels: make(map[string][]*rate.Limiter)}
}

// Configure installs the bucket layers for a channel, replacing any previous
// configuration. Bucket state restarts full.
func (l *Limiter) Configure(channel string, buckets ...BucketConfig) {
	layers := make([]*rate.Limiter, 0, len(buckets))
	for _, b := range buckets {
		layers = append(layers, rate.NewLimiter(b.limit(), b.Capacity))
	}
	l.mu.Lock()
	l.channels[channel] = layers
	l.mu.Unlock()
}

func (l *Limiter) layers(channel string) ([]*rate.Limiter, error) {
	l.mu.RLock()
	layers, ok := l.channels[channel]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	return layers, nil
}

// Acquire consumes one token from every layer of the channel, suspending the
// calling goroutine until each layer admits it or ctx is done. Exactly one
// concurrent acquirer wins each token.
func (l *Limiter) Acquire(ctx context.Context, channel string) error {
	layers, err := l.layers(channel)
	if err != nil {
		return err
	}
	for _, layer := range layers {
		if err := layer.Wait(ctx); err != nil {
			return fmt.Errorf("acquire %s token: %w", channel, err)
		}
	}
	return nil
}

// TryAcquire consumes one token from every layer without blocking. When any
// layer cannot admit immediately, tokens already reserved from earlier layers
// are returned and TryAcquire reports false.
func (l *Limiter) TryAcquire(channel string) bool {
	layers, err := l.layers(channel)
	if err != nil {
		return false
	}

	taken := make([]*rate.Reservation, 0, len(layers))
	for _, layer := range layers {
		res := layer.Reserve()
		if !res.OK() || res.Delay() > 0 {
			res.Cancel()
			for _, r := range taken {
				r.Cancel()
			}
			return false
		}
		taken = append(taken, res)
	}
	return true
}
