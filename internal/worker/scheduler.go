package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a periodic unit of work.
type Job func(ctx context.Context) error

type scheduled struct {
	name string
	spec string
	run  Job
}

// Scheduler wraps robfig/cron. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
	jobs []scheduled
}

func NewScheduler(log logrus.FieldLogger) *Scheduler {
	logger := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		log: log,
	}
}

// Add registers job under spec, e.g. "@every 5s" or "*/15 * * * *".
func (s *Scheduler) Add(ctx context.Context, name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(ctx, name, job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs = append(s.jobs, scheduled{name: name, spec: spec, run: job})
	return nil
}

// Start begins ticking and also runs every job once right away, so a fresh
// process does not wait a full interval for its first pass.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.WithField("jobs", len(s.jobs)).Info("scheduler started")
	for _, j := range s.jobs {
		go s.run(ctx, j.name, j.run)
	}
}

// Stop halts ticking and waits for running jobs, up to timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warn("scheduler stop timed out with jobs still running")
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.WithError(err).WithField("job", name).Error("scheduled job failed")
		return
	}
	s.log.WithFields(logrus.Fields{"job": name, "elapsed": time.Since(start)}).Debug("scheduled job done")
}

// DrainJob adapts a Dispatcher to a Job: it keeps claiming until a batch
// comes back short so a backlog clears within one tick.
func DrainJob(d *Dispatcher) Job {
	return func(ctx context.Context) error {
		for {
			n, err := d.RunOnce(ctx)
			if err != nil {
				return err
			}
			if n < d.batch || ctx.Err() != nil {
				return nil
			}
		}
	}
}
