// workers/cache_sweeper.go
package workers

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"match-stats-system/cache"
)

// StartCacheSweeper runs a periodic pass that purges expired and
// stale-version cache entries. Reads stay correct without it; the sweeper
// only keeps the backing store from accumulating dead entries.
func StartCacheSweeper(ctx context.Context, resultCache *cache.ResultCache, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			removed := resultCache.Sweep(ctx)
			if removed > 0 {
				log.Printf("[CacheSweeper] purged %d stale cache entries", removed)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
