// Package janitor runs the background sweep that purges refresh-token ledger
// rows which can never validate again (revoked, or past expiry). The ledger's
// validity queries already exclude those rows, so the sweep only caps
// collection growth and keeps the per-user digest scan short.
package janitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const defaultInterval = time.Hour

// Ledger is the subset of the refresh-token store the janitor needs.
type Ledger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Janitor struct {
	ledger   Ledger
	interval time.Duration
	log      zerolog.Logger
}

// New creates a Janitor sweeping at the given interval.
// If interval <= 0, defaultInterval is used.
func New(ledger Ledger, interval time.Duration, log zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Janitor{ledger: ledger, interval: interval, log: log}
}

// Start launches the sweep goroutine. It stops when ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	deleted, err := j.ledger.DeleteExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("refresh token sweep failed")
		return
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("purged dead refresh tokens")
	}
}
