package cache

import (
	"time"

	"github.com/apex/log"
	"github.com/go-co-op/gocron"
)

// Purger is implemented by stores that can drop expired entries in bulk.
type Purger interface {
	Purge() int
}

// Janitor periodically purges expired entries from a store so long-running
// processes (the GUI, the batch runner) do not accumulate stale metadata.
type Janitor struct {
	scheduler *gocron.Scheduler
	store     Purger
	interval  time.Duration
}

// NewJanitor creates a janitor sweeping store every interval.
func NewJanitor(store Purger, interval time.Duration) *Janitor {
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (j *Janitor) Start() error {
	minutes := int(j.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := j.scheduler.Every(minutes).Minutes().Do(func() {
		if dropped := j.store.Purge(); dropped > 0 {
			log.WithField("dropped", dropped).Debug("cache janitor purged expired entries")
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
