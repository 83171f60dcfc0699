package services

import (
	"log"
	"time"
)

// CleanupScheduler periodically sweeps expired drafts in the background. The
// explicit CleanupExpiredDrafts endpoint stays authoritative; this keeps the
// drafts table from accumulating dead rows between admin calls.
type CleanupScheduler struct {
	draftService DraftService
	interval     time.Duration
	stop         chan struct{}
	done         chan struct{}
}

// NewCleanupScheduler creates a scheduler sweeping at the given interval.
func NewCleanupScheduler(draftService DraftService, interval time.Duration) *CleanupScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupScheduler{
		draftService: draftService,
		interval:     interval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to end it.
func (c *CleanupScheduler) Start() {
	log.Printf("INFO: [CleanupScheduler] Starting expired-draft sweep every %s.", c.interval)
	go c.run()
}

func (c *CleanupScheduler) run() {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			result := c.draftService.CleanupExpiredDrafts()
			if result.DeletedCount > 0 {
				log.Printf("INFO: [CleanupScheduler] Background sweep removed %d expired draft(s).", result.DeletedCount)
			}
		case <-c.stop:
			log.Println("INFO: [CleanupScheduler] Stopping expired-draft sweep.")
			return
		}
	}
}

// Stop ends the sweep loop and waits for it to exit.
func (c *CleanupScheduler) Stop() {
	close(c.stop)
	<-c.done
}
