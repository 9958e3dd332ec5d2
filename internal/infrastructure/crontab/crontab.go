package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/logger"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/metrics"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const jobTimeout = 2 * time.Minute

// Crontab runs the periodic background jobs. The only scheduled job is the
// stale generation reaper: assistant messages whose generation was abandoned
// without reaching a terminal status are cancelled so the thread unblocks.
type Crontab struct {
	ctab           *crontab.Crontab
	messages       *message.MessageService
	staleThreshold time.Duration
}

func NewCrontab(messages *message.MessageService, staleThreshold time.Duration) *Crontab {
	return &Crontab{
		ctab:           crontab.New(),
		messages:       messages,
		staleThreshold: staleThreshold,
	}
}

func (c *Crontab) Run(ctx context.Context) error {
	// execute once on server start to clear anything left by a crash
	c.reapStaleGenerations(ctx)

	if err := c.ctab.AddJob("* * * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		c.reapStaleGenerations(jobCtx)
	}); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add stale reaper job")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

func (c *Crontab) reapStaleGenerations(ctx context.Context) {
	log := logger.GetLogger()

	reaped, err := c.messages.CancelStale(ctx, c.staleThreshold)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reap stale generations")
		return
	}
	if reaped > 0 {
		metrics.RecordStaleCancellations(int(reaped))
		log.Info().Int64("count", reaped).Msg("Cancelled stale generations")
	}
}
