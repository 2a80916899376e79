package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Syncer reloads every live session from the database.
type Syncer interface {
	SyncAll(ctx context.Context) error
}

// Scheduler runs the periodic resync of live sessions.
type Scheduler struct {
	cron    *cron.Cron
	syncer  Syncer
	timeout time.Duration
	log     logrus.FieldLogger
}

// New registers the resync job on schedule, a standard five-field cron
// expression or a descriptor such as "@every 5m".
func New(schedule string, syncer Syncer, timeout time.Duration, log logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		syncer:  syncer,
		timeout: timeout,
		log:     log.WithField("component", "scheduler"),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid resync schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.syncer.SyncAll(ctx); err != nil {
		s.log.WithError(err).Error("resync finished with errors")
		return
	}
	s.log.WithField("took", time.Since(start).String()).Debug("resync finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop waits for a running resync to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}
