package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nea-sg/rain-radar-camera/internal/registry"
)

// Scheduler periodically refreshes every registered camera entity.
type Scheduler struct {
	scheduler *gocron.Scheduler
	registry  *registry.Registry
	interval  time.Duration
}

// New creates a new Scheduler.
func New(reg *registry.Registry, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		registry:  reg,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 5
	}

	// Entities are refreshed one at a time: the camera pipeline assumes its
	// invocations never overlap, and this polling cadence is what upholds
	// that assumption.
	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running camera refresh job")

		for _, entity := range s.registry.List() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if img := entity.Image(ctx); img == nil {
				log.Printf("scheduler: no image available for %s", entity.EntityID())
			}
			cancel()
		}

		log.Println("scheduler: completed camera refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
