package janitor

import (
	"context"
	"log"
	"time"
)

// Refresher reloads state from an external source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Sweeper drops entries idle for longer than ttl and reports how many went.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

type Config struct {
	Hosts    Refresher
	Limiters Sweeper
	Interval time.Duration
	IdleTTL  time.Duration
}

// Run ticks until ctx is done, reloading the mirror host list and evicting
// idle per-host rate limiters.
func Run(ctx context.Context, cfg Config) {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	t := time.NewTicker(cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tick(ctx, cfg)
		}
	}
}

func tick(ctx context.Context, cfg Config) {
	if cfg.Hosts != nil {
		rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		// Refresh logs its own failures and keeps the previous list
		_ = cfg.Hosts.Refresh(rctx)
		cancel()
	}
	if cfg.Limiters != nil && cfg.IdleTTL > 0 {
		if n := cfg.Limiters.Sweep(cfg.IdleTTL); n > 0 {
			log.Printf("[janitor] evicted %d idle rate limiters", n)
		}
	}
}
