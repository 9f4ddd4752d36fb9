package worker

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Task is one periodic job. A zero Interval disables it.
type Task struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each task on its own ticker. Runs of one task never overlap;
// a tick that arrives while the previous run is still going is dropped.
type Scheduler struct {
	tasks  []Task
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewScheduler(logger *slog.Logger, tasks ...Task) *Scheduler {
	return &Scheduler{tasks: tasks, logger: logger}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, t := range s.tasks {
		if t.Interval <= 0 || t.Run == nil {
			s.logger.Info("worker task disabled", "task", t.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, t)
		s.logger.Info("worker task started", "task", t.Name, "interval", t.Interval.String())
	}
}

// Stop cancels running tasks and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("worker task panic",
				"task", t.Name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	runCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	start := time.Now()
	// errors caused by shutdown are not failures
	if err := t.Run(runCtx); err != nil && ctx.Err() == nil {
		s.logger.Error("worker task failed", "task", t.Name, "error", err.Error(), "duration", time.Since(start))
		return
	}
	s.logger.Debug("worker task finished", "task", t.Name, "duration", time.Since(start))
}
