package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"sitegen_server/internal/logger"
	"sitegen_server/internal/project"
)

// Sweeper periodically deletes projects older than the configured TTL, both
// the on-disk directory and the index row. Generated projects are otherwise
// never reclaimed, so without the sweep the projects root grows forever.
type Sweeper struct {
	cron  *cron.Cron
	store *project.Store
	index *project.Index
	ttl   time.Duration
	log   *logger.Logger
}

func NewSweeper(store *project.Store, index *project.Index, ttl time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		cron:  cron.New(),
		store: store,
		index: index,
		ttl:   ttl,
		log:   log,
	}
}

// Start schedules the sweep with the given cron spec (e.g. "@hourly") and
// starts the scheduler.
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := s.Sweep(ctx); err != nil {
			s.log.Error("retention sweep failed", "error", err)
		} else if n > 0 {
			s.log.Info("retention sweep completed", "removed", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule retention sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler; a sweep already running finishes on its own.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep removes every project created before now-ttl and returns how many
// were deleted. Per-project failures are logged and skipped so one stuck
// directory cannot wedge the whole sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.ttl)
	ids, err := s.index.OlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expired projects: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if err := s.store.Remove(id); err != nil {
			s.log.Warn("failed to remove expired project dir", "id", id, "error", err)
			continue
		}
		if err := s.index.Delete(ctx, id); err != nil {
			s.log.Warn("failed to remove expired project row", "id", id, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
