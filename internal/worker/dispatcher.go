// Package worker drains the durable task table and runs periodic jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"loan-origination/internal/domain/task"
	"loan-origination/internal/infrastructure/metrics"
)

// HandlerFunc processes one task. A returned error schedules a retry.
type HandlerFunc func(ctx context.Context, t *task.Task) error

type DispatcherOption func(*Dispatcher)

func WithLease(d time.Duration) DispatcherOption { return func(x *Dispatcher) { x.lease = d } }

func WithBatchSize(n int) DispatcherOption { return func(x *Dispatcher) { x.batch = n } }

func WithConcurrency(n int) DispatcherOption { return func(x *Dispatcher) { x.concurrency = n } }

func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(x *Dispatcher) { x.now = now }
}

// Dispatcher claims due tasks and hands them to the handler registered for
// their kind. Delivery is at least once; handlers must tolerate repeats.
type Dispatcher struct {
	tasks       task.Repository
	handlers    map[string]HandlerFunc
	lease       time.Duration
	batch       int
	concurrency int
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewDispatcher(tasks task.Repository, log logrus.FieldLogger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tasks:       tasks,
		handlers:    map[string]HandlerFunc{},
		lease:       2 * time.Minute,
		batch:       20,
		concurrency: 4,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register must be called before the first RunOnce.
func (d *Dispatcher) Register(kind string, h HandlerFunc) { d.handlers[kind] = h }

// RunOnce claims one batch and processes it. It returns the number of tasks
// claimed; handler failures are recorded on the task, not returned.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	claimed, err := d.tasks.Claim(ctx, d.now(), d.lease, d.batch)
	if err != nil {
		return 0, fmt.Errorf("claim tasks: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i := range claimed {
		t := &claimed[i]
		g.Go(func() error {
			d.process(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return len(claimed), nil
}

func (d *Dispatcher) process(ctx context.Context, t *task.Task) {
	log := d.log.WithFields(logrus.Fields{"task_id": t.TaskID, "kind": t.Kind, "attempt": t.Attempts + 1})
	start := time.Now()

	h, ok := d.handlers[t.Kind]
	if !ok {
		log.Error("no handler registered, parking task")
		d.fail(ctx, log, t, fmt.Errorf("no handler for kind %q", t.Kind), true)
		metrics.RecordTask(t.Kind, "dead", time.Since(start))
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, d.lease)
	err := safeRun(runCtx, h, t)
	cancel()

	if err == nil {
		if err := d.tasks.MarkDone(ctx, t.ID); err != nil {
			log.WithError(err).Error("mark task done")
		}
		metrics.RecordTask(t.Kind, "done", time.Since(start))
		return
	}

	dead := t.Attempts+1 >= t.MaxAttempts
	d.fail(ctx, log.WithError(err), t, err, dead)
	if dead {
		log.WithError(err).Error("task exhausted its attempts")
		metrics.RecordTask(t.Kind, "dead", time.Since(start))
		return
	}
	log.WithError(err).Warn("task failed, retrying")
	metrics.RecordTask(t.Kind, "retry", time.Since(start))
}

func (d *Dispatcher) fail(ctx context.Context, log logrus.FieldLogger, t *task.Task, cause error, dead bool) {
	attempts := t.Attempts + 1
	next := d.now().Add(task.Backoff(attempts))
	if err := d.tasks.MarkFailed(ctx, t.ID, attempts, cause.Error(), next, dead); err != nil {
		log.WithError(err).Error("record task failure")
	}
}

func safeRun(ctx context.Context, h HandlerFunc, t *task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, t)
}
