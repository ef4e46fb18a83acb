/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"asset-lifecycle-go/internal/clock"
	"asset-lifecycle-go/internal/metrics"
	"asset-lifecycle-go/internal/models"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned by RunNow for a name with no registered job.
var ErrUnknownJob = errors.New("unknown job")

const DefaultRunTimeout = 30 * time.Minute

// Config contains configuration for Scheduler
type Config struct {
	Jobs       []Job
	Locker     Locker // optional
	Metrics    *metrics.Metrics
	Clock      clock.Clock
	RunTimeout time.Duration
}

// Scheduler fires each job at its scheduled times. It keeps no record of
// past runs; missed firings are covered by the catch-up job and by the jobs
// being idempotent.
type Scheduler struct {
	jobs       map[string]Job
	order      []string
	locker     Locker
	metrics    *metrics.Metrics
	clock      clock.Clock
	runTimeout time.Duration

	mutex   sync.Mutex
	started bool

	// Control channels
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func New(cfg Config) *Scheduler {
	c := cfg.Clock
	if c == nil {
		c = clock.System()
	}
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}

	s := &Scheduler{
		jobs:       make(map[string]Job, len(cfg.Jobs)),
		locker:     cfg.Locker,
		metrics:    cfg.Metrics,
		clock:      c,
		runTimeout: timeout,
		stopChan:   make(chan struct{}),
	}
	for _, job := range cfg.Jobs {
		if _, dup := s.jobs[job.Name]; !dup {
			s.order = append(s.order, job.Name)
		}
		s.jobs[job.Name] = job
	}
	return s
}

// Jobs returns the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.order...)
}

// Start launches one loop per job and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	if len(s.order) == 0 {
		return fmt.Errorf("no jobs to schedule")
	}
	s.started = true

	zap.L().Info("Starting scheduler", zap.Strings("jobs", s.order))
	for _, name := range s.order {
		job := s.jobs[name]
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	return nil
}

// Stop gracefully stops the scheduler, waiting for in-flight runs.
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.started {
		s.mutex.Unlock()
		return
	}
	s.started = false
	s.mutex.Unlock()

	zap.L().Info("Stopping scheduler")
	close(s.stopChan)
	s.wg.Wait()
	zap.L().Info("Scheduler stopped")
}

// RunNow runs a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (models.BatchResult, error) {
	job, ok := s.jobs[name]
	if !ok {
		return models.BatchResult{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	for {
		now := s.clock.Now()
		next := job.Schedule.Next(now)
		if next.IsZero() {
			zap.L().Warn("Job has no upcoming firing", zap.String("job", job.Name))
			return
		}
		zap.L().Debug("Next job firing", zap.String("job", job.Name), zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			if _, err := s.execute(ctx, job); err != nil && !errors.Is(err, ErrLockHeld) {
				zap.L().Error("Scheduled job did not run", zap.String("job", job.Name), zap.Error(err))
			}
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) (models.BatchResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if s.locker != nil {
		release, err := s.locker.Acquire(runCtx, job.Name)
		if err != nil {
			if errors.Is(err, ErrLockHeld) {
				zap.L().Info("Job already running elsewhere; skipping", zap.String("job", job.Name))
				s.metrics.ObserveNotRun(job.Name, metrics.OutcomeLocked)
			} else {
				s.metrics.ObserveNotRun(job.Name, metrics.OutcomeLockError)
			}
			return models.BatchResult{Operation: job.Name}, err
		}
		defer release()
	}

	start := time.Now()
	zap.L().Info("Job started", zap.String("job", job.Name))
	result := job.Run(runCtx)
	elapsed := time.Since(start)

	s.metrics.ObserveRun(job.Name, result, elapsed, s.clock.Now())
	fields := []zap.Field{
		zap.String("job", job.Name),
		zap.Duration("elapsed", elapsed),
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("skipped", result.Skipped()),
		zap.Int("failed", result.Failed()),
	}
	if result.HasFailures() {
		zap.L().Warn("Job finished with failures", fields...)
	} else {
		zap.L().Info("Job finished", fields...)
	}
	return result, nil
}
