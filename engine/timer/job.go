package timer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nathoo/trogdor/types"
)

// Infinite is the executions value for a job that never runs out.
const Infinite = -1

// JobState is the countdown every job carries. Jobs embed *JobState, which
// also gives them the State method the Job interface asks for.
//
// startTime is a delay measured from initTime, the tick the job was inserted
// at. A job inserted at T0 with start S first becomes eligible at T0+S and
// then every interval ticks after that.
type JobState struct {
	mu         sync.Mutex
	id         uuid.UUID
	initTime   int
	startTime  int
	interval   int
	executions int
	cancelled  bool
}

// NewJobState creates a state with a fresh id. executions < 0 means
// infinite; interval <= 0 means the job runs once.
func NewJobState(start, interval, executions int) *JobState {
	return &JobState{
		id:         uuid.New(),
		startTime:  start,
		interval:   interval,
		executions: executions,
	}
}

func (s *JobState) State() *JobState { return s }

func (s *JobState) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *JobState) InitTime() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initTime
}

func (s *JobState) StartTime() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

func (s *JobState) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *JobState) Executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}

// SetInterval changes the spacing between executions. Jobs that track a
// runtime setting (wandering) call it from Execute.
func (s *JobState) SetInterval(interval int) {
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
}

// SetExecutions changes the remaining count. Setting 0 from inside Execute
// is how a job cancels itself.
func (s *JobState) SetExecutions(n int) {
	s.mu.Lock()
	s.executions = n
	s.mu.Unlock()
}

func (s *JobState) SetStartTime(start int) {
	s.mu.Lock()
	s.startTime = start
	s.mu.Unlock()
}

func (s *JobState) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *JobState) cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

// admit stamps the insertion tick and clears a previous cancellation so a
// removed job can be inserted again.
func (s *JobState) admit(now int) {
	s.mu.Lock()
	if s.id == uuid.Nil {
		s.id = uuid.New()
	}
	s.initTime = now
	s.cancelled = false
	s.mu.Unlock()
}

// due reports whether the job should execute at tick now.
func (s *JobState) due(now int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.executions == 0 || s.cancelled {
		return false
	}
	elapsed := now - s.initTime
	// A job admitted during tick now, including one removed and inserted
	// again, first runs on the next tick.
	if elapsed < 1 || elapsed < s.startTime {
		return false
	}
	if s.interval <= 0 {
		return true
	}
	return (elapsed-s.startTime)%s.interval == 0
}

// settle applies the post-execution countdown. A job that zeroed its own
// executions stays at zero.
func (s *JobState) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.interval <= 0:
		s.executions = 0
	case s.executions > 0:
		s.executions--
	}
}

func (s *JobState) retired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions == 0 || s.cancelled
}

// Record returns the countdown fields as a serialization record.
func (s *JobState) Record() types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.Record{
		"id":         s.id.String(),
		"init":       s.initTime,
		"start":      s.startTime,
		"interval":   s.interval,
		"executions": s.executions,
	}
}

// RestoreJobState rebuilds a state from a record produced by Record.
func RestoreJobState(rec types.Record) (*JobState, error) {
	start, ok := rec.Int("start")
	if !ok {
		return nil, errors.New("job record missing start")
	}
	interval, ok := rec.Int("interval")
	if !ok {
		return nil, errors.New("job record missing interval")
	}
	executions, ok := rec.Int("executions")
	if !ok {
		return nil, errors.New("job record missing executions")
	}
	init, _ := rec.Int("init")

	s := NewJobState(start, interval, executions)
	s.initTime = init
	if raw := rec.String("id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("job record id: %w", err)
		}
		s.id = id
	}
	return s, nil
}

// Job is a unit of deferred work driven by the Scheduler.
type Job interface {
	// Type is the variant tag used for serialization, metrics and logs.
	Type() string
	Execute()
	State() *JobState
}

// Owned is implemented by jobs that act on named world entities.
// Scheduler.RemoveOwnedBy uses it to cancel jobs for a departing entity.
type Owned interface {
	Owners() []string
}

// Serializer is implemented by jobs that can be written to a snapshot.
// Serialize returns the variant-specific fields only.
type Serializer interface {
	Serialize() types.Record
}

// ErrNotSerializable is returned by SerializeJob for runtime-only jobs.
var ErrNotSerializable = errors.New("job is not serializable")

// SerializeJob renders j as a record carrying its type tag, its countdown
// state and its own fields.
func SerializeJob(j Job) (types.Record, error) {
	s, ok := j.(Serializer)
	if !ok {
		return nil, fmt.Errorf("%s: %w", j.Type(), ErrNotSerializable)
	}
	rec := j.State().Record()
	for k, v := range s.Serialize() {
		rec[k] = v
	}
	rec["type"] = j.Type()
	return rec, nil
}
