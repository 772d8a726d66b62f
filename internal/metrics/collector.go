package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource provides functions to retrieve current counts for gauge metrics.
type StatsSource struct {
	RequesterCount func() int
	LockedCount    func() int
	PendingCount   func() int
	SubredditCount func() int
}

// StartCollector launches a goroutine that periodically updates gauge metrics.
// It runs every interval until the context is cancelled.
func StartCollector(ctx context.Context, src StatsSource, interval time.Duration) {
	// Do an initial collection immediately
	collect(src)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect(src)
			}
		}
	}()

	log.Info().Dur("interval", interval).Msg("Metrics collector started")
}

func collect(src StatsSource) {
	if src.RequesterCount != nil {
		TrackedRequestersTotal.Set(float64(src.RequesterCount()))
	}
	if src.LockedCount != nil {
		LockedSubmittersTotal.Set(float64(src.LockedCount()))
	}
	if src.PendingCount != nil {
		PendingChecksTotal.Set(float64(src.PendingCount()))
	}
	if src.SubredditCount != nil {
		SubredditsLoaded.Set(float64(src.SubredditCount()))
	}
}
