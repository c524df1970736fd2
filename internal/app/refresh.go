package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type refresher interface {
	Refresh(ctx context.Context)
}

// runRefreshLoop refreshes r every interval until ctx is done. A zero
// interval disables polling.
func runRefreshLoop(ctx context.Context, r refresher, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		logger.Info().Msg("Periodic refresh disabled")
		<-ctx.Done()
		return
	}

	logger.Info().Msgf("Refreshing dashboard every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logger.Debug().Msg("Refresh loop tick")
			r.Refresh(ctx)
		case <-ctx.Done():
			logger.Info().Msg("Refresh loop stopping")
			return
		}
	}
}
