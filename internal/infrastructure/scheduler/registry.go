package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the work of a registered job
type JobFunc = func(ctx context.Context)

// onceSchedule fires a single time at a fixed instant
type onceSchedule struct {
	at time.Time
}

// Next implements cron.Schedule. A zero time tells cron the entry will not
// run again.
func (s onceSchedule) Next(t time.Time) time.Time {
	if s.at.After(t) {
		return s.at
	}
	return time.Time{}
}

type registeredJob struct {
	entryID cron.EntryID
	seq     uint64
	at      time.Time
	fn      JobFunc
}

// JobRegistry keeps one-shot jobs in memory, keyed by a caller-chosen ID, and
// runs them through robfig/cron. Registering an existing key replaces the old
// job. Jobs are not persisted: callers re-register them after a restart.
type JobRegistry struct {
	cron    *cron.Cron
	pool    *WorkerPool
	logger  *zap.Logger
	baseCtx context.Context

	mu        sync.Mutex
	jobs      map[string]registeredJob
	recurring map[string]cron.EntryID
	running   bool
	seq       uint64
}

// RegistryOption configures a JobRegistry
type RegistryOption func(*JobRegistry)

// WithWorkerPool runs fired jobs on the pool instead of cron's goroutine
func WithWorkerPool(pool *WorkerPool) RegistryOption {
	return func(r *JobRegistry) { r.pool = pool }
}

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(r *JobRegistry) { r.logger = logger }
}

// NewJobRegistry creates a stopped registry
func NewJobRegistry(opts ...RegistryOption) *JobRegistry {
	r := &JobRegistry{
		logger:    zap.NewNop(),
		baseCtx:   context.Background(),
		jobs:      make(map[string]registeredJob),
		recurring: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(r)
	}
	cronLogger := zapCronLogger{r.logger.Named("cron")}
	r.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger)),
	)
	return r
}

// Start starts the cron runner
func (r *JobRegistry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	r.running = true
	r.baseCtx = ctx
	r.cron.Start()

	now := time.Now()
	for id, job := range r.jobs {
		if !job.at.After(now) {
			go r.fire(id, job.seq)
		}
	}
	r.logger.Info("Job registry started", zap.Int("jobs", len(r.jobs)))
	return nil
}

// Stop stops the runner and waits for running jobs, bounded by ctx.
// Registered jobs stay in the map.
func (r *JobRegistry) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	select {
	case <-r.cron.Stop().Done():
		r.logger.Info("Job registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule registers fn to run once at the given time, replacing any job
// registered under id. A time in the past runs the job immediately, or as
// soon as the registry starts.
func (r *JobRegistry) Schedule(id string, at time.Time, fn JobFunc) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyJobID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.jobs[id]; ok {
		r.cron.Remove(old.entryID)
		delete(r.jobs, id)
	}

	r.seq++
	seq := r.seq
	entryID := r.cron.Schedule(onceSchedule{at: at}, cron.FuncJob(func() {
		r.fire(id, seq)
	}))
	r.jobs[id] = registeredJob{entryID: entryID, seq: seq, at: at, fn: fn}

	// cron never activates an entry whose first run is already in the past
	if r.running && !at.After(time.Now()) {
		go r.fire(id, seq)
	}

	r.logger.Debug("Job scheduled", zap.String("job_id", id), zap.Time("at", at))
	return nil
}

// fire removes the job from the registry and runs it. A job that was
// cancelled or replaced in the meantime is skipped.
func (r *JobRegistry) fire(id string, seq uint64) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.seq != seq {
		r.mu.Unlock()
		return
	}
	delete(r.jobs, id)
	r.cron.Remove(job.entryID)
	ctx := r.baseCtx
	fn := job.fn
	r.mu.Unlock()

	r.logger.Info("Running scheduled job", zap.String("job_id", id))
	if r.pool != nil && r.pool.IsRunning() {
		err := r.pool.Submit(&Task{Name: id, Run: func(ctx context.Context) error {
			fn(ctx)
			return nil
		}})
		if err == nil {
			return
		}
		r.logger.Warn("Worker pool rejected job, running inline", zap.String("job_id", id), zap.Error(err))
	}
	fn(ctx)
}

// Cancel removes a job. It returns false when no job was registered under id.
func (r *JobRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false
	}
	r.cron.Remove(job.entryID)
	delete(r.jobs, id)
	r.logger.Debug("Job cancelled", zap.String("job_id", id))
	return true
}

// CancelPrefix removes every job whose ID starts with prefix and returns how
// many were removed
func (r *JobRegistry) CancelPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, job := range r.jobs {
		if strings.HasPrefix(id, prefix) {
			r.cron.Remove(job.entryID)
			delete(r.jobs, id)
			n++
		}
	}
	return n
}

// Has reports whether a job is registered under id
func (r *JobRegistry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	return ok
}

// Len returns the number of pending one-shot jobs
func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// NextRun returns when the job registered under id fires
func (r *JobRegistry) NextRun(id string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	return job.at, ok
}

// Every registers a recurring task on a standard five-field cron spec.
// Recurring tasks are not counted by Len.
func (r *JobRegistry) Every(name, spec string, fn JobFunc) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, spec, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.recurring[name]; ok {
		r.cron.Remove(old)
	}
	r.recurring[name] = r.cron.Schedule(schedule, cron.FuncJob(func() {
		r.mu.Lock()
		ctx := r.baseCtx
		r.mu.Unlock()
		fn(ctx)
	}))
	r.logger.Info("Recurring task registered", zap.String("task", name), zap.String("spec", spec))
	return nil
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
