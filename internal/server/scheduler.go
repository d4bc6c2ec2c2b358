package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scheduler runs consolidation on a fixed interval while the server is up.
type Scheduler struct {
	scheduler  gocron.Scheduler
	instanceID string
	log        *zap.Logger
}

// NewScheduler creates a scheduler that consolidates through srv every
// interval, sharing the server mutex with the HTTP handlers.
func NewScheduler(srv *Server, interval time.Duration, log *zap.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{
		scheduler:  sched,
		instanceID: uuid.New().String(),
		log:        log,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			promoted, err := srv.Consolidate(context.Background())
			if err != nil {
				s.log.Error("scheduled consolidation failed", zap.Error(err))
				return
			}
			s.log.Info("scheduled consolidation finished",
				zap.Int("promoted", promoted),
				zap.String("instance_id", s.instanceID))
		}),
		gocron.WithName("consolidate"),
	)
	if err != nil {
		return nil, fmt.Errorf("register consolidation job: %w", err)
	}
	return s, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.log.Info("consolidation scheduler started",
		zap.String("instance_id", s.instanceID))
}

// Shutdown stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
