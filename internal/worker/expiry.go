package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/Youmto/SHAREMONEY/internal/service"
)

// ExpirySweeper deactivates promotional videos whose validity window lapsed.
// Videos.Active also checks expiry per read, so the sweep only reconciles the
// stored flag; a missed run never serves stale content.
type ExpirySweeper struct {
	videos    *service.Videos
	log       *zap.SugaredLogger
	scheduler gocron.Scheduler
}

func NewExpirySweeper(videos *service.Videos, log *zap.SugaredLogger) (*ExpirySweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &ExpirySweeper{videos: videos, log: log, scheduler: sched}, nil
}

// Start runs one sweep immediately, then hourly.
func (e *ExpirySweeper) Start(ctx context.Context) error {
	_, err := e.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() { e.sweep(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule expiry sweep: %w", err)
	}

	e.scheduler.Start()
	e.log.Info("video expiry sweeper started")
	return nil
}

func (e *ExpirySweeper) Stop() error {
	return e.scheduler.Shutdown()
}

func (e *ExpirySweeper) sweep(ctx context.Context) {
	n, err := e.videos.DeactivateExpired(ctx)
	if err != nil {
		e.log.Errorw("expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		e.log.Infow("expired videos deactivated", "count", n)
	}
}
