package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"heybuddy/contract"
	"heybuddy/errors"
)

const (
	defaultRestartDelay    = 200 * time.Millisecond
	defaultMaxRestartDelay = 10 * time.Second
	// A run lasting this long wipes the worker's failure streak.
	stableRunDuration = 30 * time.Second
)

// Supervisor runs long-lived workers (HTTP server, reporter) side by side.
// A worker that panics or fails is restarted with an exponential backoff;
// once it fails more than maxRestarts times in a row the supervisor gives up
// on it and stops every worker. A worker returning nil is considered done.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	maxRestarts     int
	restartDelay    time.Duration
	maxRestartDelay time.Duration

	mu  sync.Mutex
	err error
}

type SupervisorOption func(*Supervisor)

// WithMaxRestarts bounds consecutive restarts of a failing worker. Zero means no bound.
func WithMaxRestarts(n int) SupervisorOption {
	return func(s *Supervisor) { s.maxRestarts = n }
}

func WithRestartDelay(initial, ceiling time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.restartDelay = initial
		s.maxRestartDelay = ceiling
	}
}

func NewSupervisor(log *slog.Logger, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		wg:              &sync.WaitGroup{},
		log:             log,
		restartDelay:    defaultRestartDelay,
		maxRestartDelay: defaultMaxRestartDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts every registered worker under a context derived from ctx.
// Cancelling ctx, or calling Stop, winds all of them down.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
	s.log.Debug("All workers stopped")
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs worker in its own goroutine and restarts it whenever it panics
// or returns an error while ctx is still alive.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	name := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		failures := 0
		for {
			if ctx.Err() != nil {
				s.log.Info("Stopping worker", "name", name)
				return
			}

			startedAt := time.Now()
			err := s.runOnce(ctx, worker, name)
			if err == nil {
				s.log.Info("Worker finished", "name", name)
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", name)
				return
			}

			if time.Since(startedAt) >= stableRunDuration {
				failures = 0
			}
			failures++
			if s.maxRestarts > 0 && failures > s.maxRestarts {
				s.giveUp(fmt.Errorf("%w: %s: %w", errors.ErrWorkerGaveUp, name, err))
				return
			}

			delay := s.backoff(failures)
			s.log.Warn("Worker crashed, restarting",
				"name", name, "error", err, "attempt", failures, "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}()
}

func (s *Supervisor) runOnce(ctx context.Context, worker contract.Worker, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Worker panicked", "name", name, "panic", r)
			err = errors.ErrWorkerPanic
		}
	}()
	return worker.Run(ctx)
}

// backoff doubles the restart delay for every consecutive failure, up to maxRestartDelay.
func (s *Supervisor) backoff(failures int) time.Duration {
	delay := s.restartDelay
	for i := 1; i < failures && delay < s.maxRestartDelay; i++ {
		delay *= 2
	}
	return min(delay, s.maxRestartDelay)
}

func (s *Supervisor) giveUp(err error) {
	s.log.Error("Worker keeps failing, stopping all workers", "error", err)
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.Stop()
}

// Err reports why the supervisor gave up, nil after a regular shutdown.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop cancels the context shared by all workers.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
