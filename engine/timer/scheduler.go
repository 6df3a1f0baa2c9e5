// Package timer runs deferred work on a fixed tick.
//
// The Scheduler owns the set of active jobs and a tick counter. Each tick it
// takes a snapshot of the set, executes the jobs that are due and retires
// the ones whose executions reached zero. The scheduler lock is never held
// while a job runs, so jobs may insert or remove other jobs freely; jobs
// inserted during a tick start counting on the next one.
package timer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPeriod is how long one tick lasts when no period is configured.
const DefaultPeriod = time.Second

// ErrRunning is returned by Start and Run when the tick loop is already up.
var ErrRunning = errors.New("scheduler already running")

// Observer receives scheduler statistics. engine/metrics implements it.
type Observer interface {
	Ticked()
	JobExecuted(tag string)
	JobFault(tag string)
	ActiveJobs(n int)
}

// Scheduler is the game clock.
type Scheduler struct {
	tickMu sync.Mutex // serializes whole ticks

	mu      sync.Mutex
	time    int
	jobs    []Job
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	period   time.Duration
	logger   *zap.Logger
	observer Observer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New creates a stopped scheduler at time 0.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		period: DefaultPeriod,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Period() time.Duration { return s.period }

// Time returns the number of ticks elapsed.
func (s *Scheduler) Time() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.time
}

// Active reports whether the tick loop is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Run ticks every period until ctx is cancelled or Stop is called. It blocks.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	s.loop(ctx, done)
	return nil
}

// Start runs the tick loop on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	go s.loop(ctx, done)
	return nil
}

func (s *Scheduler) begin(parent context.Context) (context.Context, chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, nil, ErrRunning
	}
	ctx, cancel := context.WithCancel(parent)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	return ctx, s.done, nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
		close(done)
	}()

	s.logger.Info("scheduler started", zap.Duration("period", s.period))
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.Int("time", s.Time()))
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop halts the tick loop and waits for the current tick to finish. It is
// a no-op when the scheduler is not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick advances the clock by one and runs every due job. The tick loop calls
// it; tests and the wait command call it directly.
func (s *Scheduler) Tick() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	s.time++
	now := s.time
	snapshot := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range snapshot {
		st := j.State()
		if !st.due(now) {
			continue
		}
		s.execute(j)
		st.settle()
	}

	s.mu.Lock()
	kept := s.jobs[:0]
	for _, j := range s.jobs {
		if j.State().retired() {
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = kept
	active := len(kept)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.Ticked()
		s.observer.ActiveJobs(active)
	}
}

func (s *Scheduler) execute(j Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timer job fault",
				zap.String("job", j.Type()),
				zap.String("id", j.State().ID().String()),
				zap.Error(fmt.Errorf("%v", r)),
				zap.ByteString("stack", debug.Stack()),
			)
			if s.observer != nil {
				s.observer.JobFault(j.Type())
			}
		}
	}()

	j.Execute()
	if s.observer != nil {
		s.observer.JobExecuted(j.Type())
	}
}

// Insert adds j to the active set, stamping the current time as its
// insertion tick. Safe to call from inside a running job.
func (s *Scheduler) Insert(j Job) {
	if j == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	j.State().admit(s.time)
	s.jobs = append(s.jobs, j)
	s.logger.Debug("timer job inserted",
		zap.String("job", j.Type()),
		zap.Int("time", s.time),
	)
}

// Remove drops j from the active set. A job removed during a tick does not
// run later in that tick.
func (s *Scheduler) Remove(j Job) bool {
	if j == nil {
		return false
	}
	target := j.State()
	return s.removeWhere(func(candidate Job) bool {
		return candidate.State() == target
	}) > 0
}

// RemoveByID drops the job with the given id.
func (s *Scheduler) RemoveByID(id uuid.UUID) bool {
	return s.removeWhere(func(candidate Job) bool {
		return candidate.State().ID() == id
	}) > 0
}

// RemoveOwnedBy drops every job that acts on the named entity and returns
// how many were removed.
func (s *Scheduler) RemoveOwnedBy(name string) int {
	return s.removeWhere(func(candidate Job) bool {
		owned, ok := candidate.(Owned)
		if !ok {
			return false
		}
		for _, owner := range owned.Owners() {
			if owner == name {
				return true
			}
		}
		return false
	})
}

func (s *Scheduler) removeWhere(match func(Job) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.jobs[:0]
	for _, j := range s.jobs {
		if match(j) {
			j.State().cancel()
			removed++
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = kept
	return removed
}

// Reset drops every job and rewinds the clock to 0.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		j.State().cancel()
	}
	s.jobs = nil
	s.time = 0
}

// Jobs returns the active set in insertion order.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.jobs...)
}

// Len is the size of the active set.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Restore replaces the clock and the active set with snapshot contents. The
// jobs keep the insertion ticks they were recorded with.
func (s *Scheduler) Restore(now int, jobs []Job) {
	s.RestoreWith(now, jobs, nil)
}

// RestoreWith is Restore with fn run first under the same tick lock, so no
// tick observes state fn has changed before the jobs are swapped in. fn must
// not call Tick.
func (s *Scheduler) RestoreWith(now int, jobs []Job, fn func()) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if fn != nil {
		fn()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		j.State().cancel()
	}
	s.time = now
	s.jobs = make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if j != nil {
			s.jobs = append(s.jobs, j)
		}
	}
}
