package handover

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper expires stale handovers on a fixed interval. A handover is stale
// when its window is more than a day old and the receiving side never
// engaged; anything started or accepted is left for a human to resolve.
type Sweeper struct {
	handovers HandoverRepository
	logger    zerolog.Logger

	Interval     time.Duration
	InitialDelay time.Duration

	now func() time.Time
}

func NewSweeper(handovers HandoverRepository, logger zerolog.Logger, interval, initialDelay time.Duration) *Sweeper {
	return &Sweeper{
		handovers:    handovers,
		logger:       logger,
		Interval:     interval,
		InitialDelay: initialDelay,
		now:          time.Now,
	}
}

// RunOnce performs a single sweep and returns the number of handovers
// expired.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-24 * time.Hour)
	n, err := s.handovers.ExpireStale(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("expired", n).Time("cutoff", cutoff).Msg("expired stale handovers")
	}
	return n, nil
}

// Start runs the sweep loop until ctx is cancelled. The first sweep waits
// InitialDelay so a restarting server does not sweep before it can serve.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.Interval).
		Dur("initial_delay", s.InitialDelay).
		Msg("starting handover sweeper")

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.InitialDelay):
	}
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("handover sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
