package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/verification-api/internal/pkg/metrics"
)

func newTestSweeper() (*Sweeper, *MockVerificationRepository, *MockVerificationLogRepository, *MockRateLimitRepository) {
	records := new(MockVerificationRepository)
	logs := new(MockVerificationLogRepository)
	limits := new(MockRateLimitRepository)

	cfg := testVerificationConfig()
	cfg.LogRetentionDays = 30
	cfg.RateLimitRetentionHours = 24

	s := NewSweeper(cfg, records, logs, limits, nil)
	s.now = func() time.Time { return testNow }
	return s, records, logs, limits
}

func TestSweeper_Sweep(t *testing.T) {
	s, records, logs, limits := newTestSweeper()
	records.On("DeleteExpiredUnverified", mock.Anything, testNow).Return(int64(4), nil)
	logs.On("DeleteOlderThan", mock.Anything, testNow.AddDate(0, 0, -30)).Return(int64(10), nil)
	limits.On("DeleteOlderThan", mock.Anything, testNow.Add(-24*time.Hour)).Return(int64(2), nil)

	before := testutil.ToFloat64(metrics.SweptRows.WithLabelValues("verification_logs"))

	res := s.Sweep(context.Background())

	assert.Equal(t, SweepResult{Records: 4, Logs: 10, RateLimits: 2}, res)
	assert.Equal(t, before+10, testutil.ToFloat64(metrics.SweptRows.WithLabelValues("verification_logs")))
	records.AssertExpectations(t)
	logs.AssertExpectations(t)
	limits.AssertExpectations(t)
}

func TestSweeper_StepFailureDoesNotStopOthers(t *testing.T) {
	s, records, logs, limits := newTestSweeper()
	records.On("DeleteExpiredUnverified", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	logs.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))
	limits.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(3), nil)

	res := s.Sweep(context.Background())

	assert.Equal(t, SweepResult{RateLimits: 3}, res)
	limits.AssertExpectations(t)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	s, records, logs, limits := newTestSweeper()
	s.cfg.SweepInterval = 5 * time.Millisecond
	swept := make(chan struct{}, 1)
	records.On("DeleteExpiredUnverified", mock.Anything, mock.Anything).Return(int64(0), nil)
	logs.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), nil)
	limits.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), nil).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
