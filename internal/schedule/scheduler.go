package schedule

import (
	"context"
	"log"
	"time"

	"studio-schedule/internal/util"
)

// RunPeriodic drives the daily maintenance loop: expand every active
// pattern to the standard horizon, then sweep ended lessons to missed. One
// pass runs immediately on startup; the loop exits when ctx is cancelled.
// Multiple instances may run this concurrently; redundant passes are
// harmless because generation is idempotent.
func (s *Service) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	s.runPass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Periodic scheduler stopped")
			return
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *Service) runPass(ctx context.Context) {
	horizon := util.StartOfDay(s.now()).AddDate(0, 0, s.horizonDays)

	created, err := s.GenerateAll(ctx, horizon)
	if err != nil {
		log.Printf("ERROR: periodic generation pass: %v", err)
	}
	missed, err := s.SweepMissed(ctx)
	if err != nil {
		log.Printf("ERROR: missed-lesson sweep: %v", err)
	}
	log.Printf("Schedule pass complete: %d lessons created, %d marked missed (horizon %s)",
		created, missed, util.FormatDate(horizon))
}
