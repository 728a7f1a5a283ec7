package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_AddRejectsBadSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewScheduler(logger)
	err := s.Add(context.Background(), "broken", "every now and then", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_StartRunsJobsImmediately(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewScheduler(logger)
	ctx := context.Background()

	var ok, failed atomic.Int32
	require.NoError(t, s.Add(ctx, "ok", "@every 1h", func(context.Context) error {
		ok.Add(1)
		return nil
	}))
	require.NoError(t, s.Add(ctx, "failing", "@every 1h", func(context.Context) error {
		failed.Add(1)
		return errors.New("nope")
	}))

	s.Start(ctx)
	defer s.Stop(time.Second)

	assert.Eventually(t, func() bool { return ok.Load() == 1 && failed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "scheduled job failed" && e.Data["job"] == "failing" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_CancelledContextSkipsRun(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewScheduler(logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	s.run(ctx, "job", func(context.Context) error {
		runs.Add(1)
		return nil
	})
	assert.Zero(t, runs.Load())
}
