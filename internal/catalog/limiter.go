package catalog

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/ratelimit"
)

// Limiters hands out one request-rate limiter per upstream host. It only paces
// outgoing calls; which host a request talks to is decided per attempt.
type Limiters struct {
	rate int
	m    *xsync.MapOf[string, *limiterEntry]
}

type limiterEntry struct {
	rl       ratelimit.Limiter
	lastUsed atomic.Int64
}

func NewLimiters(perSecond int) *Limiters {
	return &Limiters{rate: perSecond, m: xsync.NewMapOf[string, *limiterEntry]()}
}

// Take blocks until the host may issue another request. The underlying limiter
// cannot be interrupted, so ctx is checked on both sides of the wait and a
// request whose deadline passed while queued is not sent. A nil receiver or a
// non-positive rate disables pacing.
func (l *Limiters) Take(ctx context.Context, host string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.rate <= 0 {
		return nil
	}
	e, _ := l.m.LoadOrCompute(host, func() *limiterEntry {
		log.Printf("[catalog] rate limiter created host=%s rate=%d/s", host, l.rate)
		return &limiterEntry{rl: ratelimit.New(l.rate)}
	})
	e.lastUsed.Store(time.Now().UnixNano())
	e.rl.Take()
	return ctx.Err()
}

// Sweep drops limiters idle for longer than ttl and reports how many were removed.
func (l *Limiters) Sweep(ttl time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := time.Now().Add(-ttl).UnixNano()
	removed := 0
	l.m.Range(func(host string, e *limiterEntry) bool {
		if e.lastUsed.Load() < cutoff {
			l.m.Delete(host)
			removed++
		}
		return true
	})
	return removed
}

func (l *Limiters) Len() int {
	if l == nil {
		return 0
	}
	return l.m.Size()
}
