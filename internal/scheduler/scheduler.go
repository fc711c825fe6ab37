// Package scheduler runs named background jobs at fixed intervals or at
// a fixed time of day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobFunc is one unit of scheduled work. Errors are logged, never fatal.
type JobFunc func(ctx context.Context) error

// job is a registered unit of work with its cadence.
type job struct {
	name     string
	interval time.Duration
	daily    *time.Duration // offset from midnight, local time
	fn       JobFunc
}

// Service runs registered jobs until stopped. Each job gets its own
// goroutine; a slow job delays only itself.
type Service struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates an empty scheduler Service.
func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// Every registers a job that runs every interval, starting one interval
// after Start.
func (s *Service) Every(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	return s.add(job{name: name, interval: interval, fn: fn})
}

// Daily registers a job that runs once a day at the given local time.
func (s *Service) Daily(name string, hour, minute int, fn JobFunc) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("job %s: invalid time %02d:%02d", name, hour, minute)
	}
	offset := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	return s.add(job{name: name, daily: &offset, fn: fn})
}

func (s *Service) add(j job) error {
	if j.name == "" {
		return fmt.Errorf("job name is empty")
	}
	if j.fn == nil {
		return fmt.Errorf("job %s has no function", j.name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("job %s: scheduler already started", j.name)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start launches every registered job. It returns immediately; jobs run
// until Stop or until ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go func(j job) {
			defer s.wg.Done()
			s.runJob(ctx, j)
		}(j)
	}
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels all jobs and waits for them to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Service) runJob(ctx context.Context, j job) {
	for {
		wait := s.nextDelay(j)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		start := s.now()
		if err := j.fn(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("job failed", "job", j.name, "error", err)
		} else {
			s.logger.Debug("job finished", "job", j.name, "took", s.now().Sub(start))
		}
	}
}

// nextDelay computes how long to sleep before the job's next run.
func (s *Service) nextDelay(j job) time.Duration {
	if j.daily == nil {
		return j.interval
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	next := midnight.Add(*j.daily)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
