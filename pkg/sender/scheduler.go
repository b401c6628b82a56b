package sender

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sender/pkg/errors"
	"github.com/ajitpratap0/sender/pkg/logger"
)

// Scheduler decides where send-result callbacks run.
type Scheduler interface {
	Schedule(task func()) error
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(task func()) error

// Schedule calls f(task).
func (f SchedulerFunc) Schedule(task func()) error {
	return f(task)
}

type immediateScheduler struct{}

var immediate = &immediateScheduler{}

// Immediate returns the scheduler that runs each task on the calling
// goroutine. It is the default scheduler of sender options.
func Immediate() Scheduler {
	return immediate
}

func (*immediateScheduler) Schedule(task func()) error {
	if task == nil {
		return errors.InvalidArgument("task")
	}
	task()
	return nil
}

func (*immediateScheduler) String() string { return "immediate" }

// WorkerScheduler runs tasks on a fixed pool of goroutines fed by a bounded
// queue. Schedule blocks while the queue is full, until Close is called.
type WorkerScheduler struct {
	name    string
	logger  *zap.Logger
	queue   chan func()
	closing chan struct{}
	wg      sync.WaitGroup

	// mu guards closed and registration in senders. The queue is closed
	// once every registered Schedule call has returned.
	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup

	executed int64
	panics   int64
}

// WorkerConfig configures a WorkerScheduler.
type WorkerConfig struct {
	Name      string
	Workers   int // 0 = runtime.NumCPU()
	QueueSize int // 0 = DefaultMaxInFlight
}

// NewWorkerScheduler starts the worker goroutines. Close must be called to
// release them.
func NewWorkerScheduler(config WorkerConfig, log *zap.Logger) *WorkerScheduler {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultMaxInFlight
	}
	if config.Name == "" {
		config.Name = "sender-results"
	}
	if log == nil {
		log = logger.Get()
	}

	s := &WorkerScheduler{
		name:    config.Name,
		logger:  log.With(zap.String("component", "worker_scheduler"), zap.String("scheduler", config.Name)),
		queue:   make(chan func(), config.QueueSize),
		closing: make(chan struct{}),
	}

	s.wg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go s.worker(i)
	}

	s.logger.Debug("started worker scheduler",
		zap.Int("workers", config.Workers),
		zap.Int("queue_size", config.QueueSize))

	return s
}

// Schedule queues task for execution on a worker. A call blocked on a full
// queue returns a closed error once Close starts.
func (s *WorkerScheduler) Schedule(task func()) error {
	if task == nil {
		return errors.InvalidArgument("task")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.closedError()
	}
	s.senders.Add(1)
	s.mu.Unlock()
	defer s.senders.Done()

	select {
	case s.queue <- task:
		return nil
	case <-s.closing:
		return s.closedError()
	}
}

func (s *WorkerScheduler) closedError() error {
	return errors.New(errors.ErrorTypeClosed, "scheduler is closed").
		WithDetail("scheduler", s.name)
}

// Close stops accepting tasks and waits for queued tasks to finish or for ctx
// to end, whichever comes first. Tasks already queued still run after ctx
// ends.
func (s *WorkerScheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.closing)
		go func() {
			s.senders.Wait()
			close(s.queue)
		}()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debug("worker scheduler closed",
			zap.Int64("executed", atomic.LoadInt64(&s.executed)),
			zap.Int64("panics", atomic.LoadInt64(&s.panics)))
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "worker scheduler did not drain").
			WithDetail("scheduler", s.name)
	}
}

// Executed returns the number of tasks that ran to completion or panicked.
func (s *WorkerScheduler) Executed() int64 {
	return atomic.LoadInt64(&s.executed)
}

// String implements fmt.Stringer.
func (s *WorkerScheduler) String() string {
	return fmt.Sprintf("workers(%s)", s.name)
}

func (s *WorkerScheduler) worker(id int) {
	defer s.wg.Done()
	for task := range s.queue {
		s.run(id, task)
	}
}

func (s *WorkerScheduler) run(id int, task func()) {
	defer func() {
		atomic.AddInt64(&s.executed, 1)
		if r := recover(); r != nil {
			atomic.AddInt64(&s.panics, 1)
			s.logger.Error("scheduled task panicked",
				zap.Int("worker", id),
				zap.Any("panic", r))
		}
	}()
	task()
}
