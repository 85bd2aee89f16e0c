// Package scheduler runs background work: a bounded worker pool, the
// in-process registry of one-shot jobs and recurring cron tasks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of work executed by the pool
type Task struct {
	Name       string
	Run        func(ctx context.Context) error
	MaxRetries int
	RetryDelay time.Duration

	attempts int
}

// PoolConfig holds worker pool configuration
type PoolConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// DefaultPoolConfig returns the default pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:    4,
		QueueSize:  100,
		JobTimeout: 2 * time.Minute,
	}
}

// Validate checks the configuration
func (c PoolConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// WorkerPool executes submitted tasks on a fixed number of goroutines
type WorkerPool struct {
	config PoolConfig
	logger *zap.Logger

	tasks     chan *Task
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
}

// NewWorkerPool creates a stopped pool
func NewWorkerPool(config PoolConfig, logger *zap.Logger) (*WorkerPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		config: config,
		logger: logger,
		tasks:  make(chan *Task, config.QueueSize),
	}, nil
}

// Start launches the workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return nil
	}
	p.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("Worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Duration("job_timeout", p.config.JobTimeout),
	)
	return nil
}

// Stop drains queued tasks and waits for the workers, bounded by ctx
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("Worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("Worker pool stop timed out")
		return ctx.Err()
	}
}

// Submit queues a task without blocking
func (p *WorkerPool) Submit(task *Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case p.tasks <- task:
		p.logger.Debug("Task submitted", zap.String("task", task.Name))
		return nil
	default:
		return ErrJobQueueFull
	}
}

// IsRunning reports whether the pool accepts tasks
func (p *WorkerPool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

func (p *WorkerPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.process(ctx, task, workerID)
	}
}

func (p *WorkerPool) process(ctx context.Context, task *Task, workerID int) {
	task.attempts++
	taskCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	err := p.run(taskCtx, task)
	if err == nil {
		p.logger.Debug("Task completed",
			zap.Int("worker_id", workerID),
			zap.String("task", task.Name),
		)
		return
	}

	p.logger.Error("Task failed",
		zap.Int("worker_id", workerID),
		zap.String("task", task.Name),
		zap.Int("attempt", task.attempts),
		zap.Error(err),
	)
	if task.attempts > task.MaxRetries {
		return
	}

	// retry off the worker so a sleeping task does not hold a slot
	go func() {
		select {
		case <-time.After(task.RetryDelay):
		case <-ctx.Done():
			return
		}
		if err := p.Submit(task); err != nil {
			p.logger.Warn("Failed to re-queue task for retry",
				zap.String("task", task.Name),
				zap.Error(err),
			)
		}
	}()
}

func (p *WorkerPool) run(ctx context.Context, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Run(ctx)
}
