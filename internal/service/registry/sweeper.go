package registry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically evicts participants whose heartbeat went stale.
// A failed sweep is logged and the next tick runs normally.
type Sweeper struct {
	svc        *Service
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

// NewSweeper creates a sweeper that ticks every interval and treats
// heartbeats older than staleAfter as stale.
func NewSweeper(svc *Service, interval, staleAfter time.Duration, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		svc:        svc,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info().
		Dur("interval", w.interval).
		Dur("stale_after", w.staleAfter).
		Msg("eviction sweeper started")

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			w.log.Info().Msg("eviction sweeper stopped")
			return
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	evicted, err := w.svc.EvictStale(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("sweep failed")
		return
	}
	if evicted > 0 {
		w.log.Info().Int("evicted", evicted).Msg("evicted stale participants")
	}
}
