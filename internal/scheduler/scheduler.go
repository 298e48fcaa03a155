package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/robfig/cron/v3"
)

var ErrUnknownJob = errors.New("unknown job")

// job never overlaps with itself: cron ticks, boot runs and manual
// triggers all pass through the same running flag.
type job struct {
	name    string
	spec    string
	running atomic.Bool
	run     cron.Job
}

// Scheduler fires named cycles on daily cron specs in one timezone.
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.ZapLogger
	timeout time.Duration

	mu     sync.Mutex
	jobs   map[string]*job
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a scheduler; timeout bounds each run of any job (0 = unbounded).
func New(loc *time.Location, timeout time.Duration, log *logger.ZapLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger{log}),
		),
		log:     log,
		timeout: timeout,
		jobs:    make(map[string]*job),
		base:    base,
		cancel:  cancel,
	}
}

// Register adds a named cycle. fn errors are logged; they never stop the scheduler.
func (s *Scheduler) Register(name, spec string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	j := &job{name: name, spec: spec}
	j.run = cron.NewChain(cron.Recover(cronLogger{s.log})).Then(cron.FuncJob(func() {
		s.execute(j, fn)
	}))

	if _, err := s.cron.AddFunc(spec, func() { s.tick(j) }); err != nil {
		return fmt.Errorf("invalid cron expression for %q: %w", name, err)
	}
	s.jobs[name] = j

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "scheduler: registered job",
		Fields:  map[string]any{"job": name, "schedule": spec},
	})
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "scheduler started",
		Fields:  map[string]any{"jobs": len(s.jobs), "tz": s.cron.Location().String()},
	})
}

// Trigger runs the named job in the background unless a run of it is in flight.
func (s *Scheduler) Trigger(name string) (bool, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if !j.running.CompareAndSwap(false, true) {
		s.logSkip(j)
		return false, nil
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Store(false)
		j.run.Run()
	}()
	return true, nil
}

// Stop halts new ticks and waits for in-flight runs until ctx is done,
// after which their contexts are cancelled.
func (s *Scheduler) Stop(ctx context.Context) {
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Log(logger.LogEntry{Level: "warn", Message: "scheduler: abandoning in-flight runs"})
	}
	s.cancel()
	s.log.Log(logger.LogEntry{Level: "info", Message: "scheduler stopped"})
}

func (s *Scheduler) tick(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		s.logSkip(j)
		return
	}
	defer j.running.Store(false)
	j.run.Run()
}

func (s *Scheduler) execute(j *job, fn func(ctx context.Context) error) {
	ctx := s.base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "scheduler: job failed",
			Fields:  map[string]any{"job": j.name, "dur": time.Since(start).String()},
			Error:   err,
		})
		return
	}
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "scheduler: job finished",
		Fields:  map[string]any{"job": j.name, "dur": time.Since(start).String()},
	})
}

func (s *Scheduler) logSkip(j *job) {
	s.log.Log(logger.LogEntry{
		Level:   "warn",
		Message: "scheduler: previous run still in flight, trigger dropped",
		Fields:  map[string]any{"job": j.name},
	})
}

// cronLogger routes robfig/cron's own logging into the service logger.
type cronLogger struct {
	l *logger.ZapLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Log(logger.LogEntry{Level: "debug", Message: "cron: " + msg, Fields: kvFields(keysAndValues)})
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Log(logger.LogEntry{Level: "error", Message: "cron: " + msg, Fields: kvFields(keysAndValues), Error: err})
}

func kvFields(kv []interface{}) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
