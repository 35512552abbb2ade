// Package scheduler runs named background jobs on fixed intervals.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/monocle-dev/wishlist/internal/logging"
)

// Job is a unit of periodic work. Run is called once when the job is added
// and then on every tick until the job is removed or the scheduler stops.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   map[string]*scheduledJob // job name -> job
	mu     sync.RWMutex
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger logging.Logger
}

type scheduledJob struct {
	job    Job
	ticker *time.Ticker
	cancel context.CancelFunc
}

func NewScheduler(logger logging.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*scheduledJob),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Stop cancels every job and waits for running executions to return.
func (s *Scheduler) Stop() {
	s.logger.Info(s.ctx, "stopping scheduler")
	s.cancel()

	s.mu.Lock()
	for _, sj := range s.jobs {
		sj.ticker.Stop()
		sj.cancel()
	}
	s.jobs = make(map[string]*scheduledJob)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info(context.Background(), "scheduler stopped")
}

// AddJob schedules job, replacing any job with the same name.
func (s *Scheduler) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	if existing, ok := s.jobs[job.Name]; ok {
		existing.ticker.Stop()
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)

	sj := &scheduledJob{
		job:    job,
		ticker: time.NewTicker(job.Interval),
		cancel: jobCancel,
	}

	s.jobs[job.Name] = sj

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.execute(jobCtx, job)
		s.runJob(jobCtx, sj)
	}()

	s.logger.Info(s.ctx, "job scheduled", "job", job.Name, "interval", job.Interval)
}

func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sj, ok := s.jobs[name]; ok {
		sj.ticker.Stop()
		sj.cancel()
		delete(s.jobs, name)
		s.logger.Info(s.ctx, "job removed", "job", name)
	}
}

func (s *Scheduler) runJob(ctx context.Context, sj *scheduledJob) {
	defer sj.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sj.ticker.C:
			s.execute(ctx, sj.job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()

	if err := job.Run(ctx); err != nil {
		s.logger.Error(ctx, "job failed", "job", job.Name, "error", err)
		return
	}

	s.logger.Debug(ctx, "job finished", "job", job.Name, "duration", time.Since(start))
}

// Status reports the number of scheduled jobs and whether the scheduler is
// still accepting work.
func (s *Scheduler) Status() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}

	return map[string]interface{}{
		"active_jobs": len(s.jobs),
		"jobs":        names,
		"running":     s.ctx.Err() == nil,
	}
}
