// Package scheduler runs named background jobs on intervals or cron
// specs. It is deliberately small: plugins and services register jobs at
// startup; there is no persistence and no distributed coordination.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"streamcast/pkg/logx"
)

type Scheduler struct {
	cron *cron.Cron
	log  logx.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log logx.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		log:     log,
		entries: map[string]cron.EntryID{},
	}
}

// Start begins running jobs. Jobs registered after Start are picked up too.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.ctx != nil {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop halts job launches and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddInterval schedules job to run every `every`.
func (s *Scheduler) AddInterval(name string, every time.Duration, job func(ctx context.Context) error) error {
	if every <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}
	id := s.cron.Schedule(cron.Every(every), s.wrap(name, job))
	s.entries[name] = id
	return nil
}

// AddCron schedules job on a standard 5-field cron spec (or "@every ...").
func (s *Scheduler) AddCron(name, spec string, job func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}
	id, err := s.cron.AddJob(spec, s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("job %q: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

// Remove unschedules a job. Returns false if the name is unknown.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, name)
	return true
}

func (s *Scheduler) wrap(name string, job func(ctx context.Context) error) cron.Job {
	return cron.FuncJob(func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}

		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in scheduled job",
					logx.String("job", name),
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())),
				)
			}
		}()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Warn("scheduled job failed",
				logx.String("job", name),
				logx.Duration("took", time.Since(start)),
				logx.Err(err),
			)
			return
		}
		s.log.Debug("scheduled job done",
			logx.String("job", name),
			logx.Duration("took", time.Since(start)),
		)
	})
}
