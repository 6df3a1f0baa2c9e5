package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nathoo/trogdor/types"
)

// countingJob records the ticks it ran at.
type countingJob struct {
	*JobState
	clock  *Scheduler
	mu     sync.Mutex
	ranAt  []int
	owners []string
	onRun  func(j *countingJob)
}

func newCountingJob(s *Scheduler, start, interval, executions int) *countingJob {
	return &countingJob{JobState: NewJobState(start, interval, executions), clock: s}
}

func (j *countingJob) Type() string { return "counting" }

func (j *countingJob) Execute() {
	j.mu.Lock()
	j.ranAt = append(j.ranAt, j.clock.Time())
	j.mu.Unlock()
	if j.onRun != nil {
		j.onRun(j)
	}
}

func (j *countingJob) Owners() []string { return j.owners }

func (j *countingJob) Serialize() types.Record {
	return types.Record{"owners": len(j.owners)}
}

func (j *countingJob) runs() []int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]int(nil), j.ranAt...)
}

func contains(s *Scheduler, j Job) bool {
	for _, candidate := range s.Jobs() {
		if candidate.State() == j.State() {
			return true
		}
	}
	return false
}

func tickTo(s *Scheduler, t int) {
	for s.Time() < t {
		s.Tick()
	}
}

func TestTick_Cadence(t *testing.T) {
	s := New()
	j := newCountingJob(s, 10, 5, 3)
	s.Insert(j)

	tickTo(s, 20)
	assert.Equal(t, []int{10, 15, 20}, j.runs())
	assert.Equal(t, 0, j.Executions())

	s.Tick()
	assert.Equal(t, 21, s.Time())
	assert.False(t, contains(s, j), "exhausted job must be retired")
	assert.Equal(t, []int{10, 15, 20}, j.runs())
}

func TestTick_StartIsRelativeToInsertion(t *testing.T) {
	s := New()
	tickTo(s, 7)

	j := newCountingJob(s, 3, 2, 2)
	s.Insert(j)
	assert.Equal(t, 7, j.InitTime())

	tickTo(s, 15)
	assert.Equal(t, []int{10, 12}, j.runs())
	assert.Equal(t, 0, s.Len())
}

func TestTick_InfiniteExecutions(t *testing.T) {
	s := New()
	j := newCountingJob(s, 1, 1, Infinite)
	s.Insert(j)

	tickTo(s, 50)
	assert.Len(t, j.runs(), 50)
	assert.Equal(t, Infinite, j.Executions())
	assert.True(t, contains(s, j))
}

func TestTick_ZeroIntervalRunsOnce(t *testing.T) {
	s := New()
	j := newCountingJob(s, 2, 0, 5)
	s.Insert(j)

	tickTo(s, 10)
	assert.Equal(t, []int{2}, j.runs())
	assert.Equal(t, 0, s.Len())
}

func TestTick_SelfCancel(t *testing.T) {
	s := New()
	j := newCountingJob(s, 0, 1, Infinite)
	j.onRun = func(j *countingJob) { j.SetExecutions(0) }
	s.Insert(j)

	s.Tick()
	assert.Len(t, j.runs(), 1)
	assert.False(t, contains(s, j))

	s.Tick()
	s.Tick()
	assert.Len(t, j.runs(), 1, "cancelled job never runs again")
}

func TestTick_AtMostOncePerTick(t *testing.T) {
	s := New()
	j := newCountingJob(s, 0, 1, Infinite)
	s.Insert(j)

	for i := 0; i < 5; i++ {
		s.Tick()
	}
	runs := j.runs()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, runs)
}

func TestInsertDuringTick(t *testing.T) {
	s := New()
	var child *countingJob
	parent := newCountingJob(s, 1, 1, 1)
	parent.onRun = func(*countingJob) {
		child = newCountingJob(s, 0, 1, 1)
		s.Insert(child)
	}
	s.Insert(parent)

	s.Tick()
	require.NotNil(t, child)
	assert.Empty(t, child.runs(), "job inserted mid-tick waits for the next tick")
	assert.True(t, contains(s, child))
	assert.False(t, contains(s, parent))

	s.Tick()
	assert.Equal(t, []int{2}, child.runs())
	assert.Equal(t, 0, s.Len())
}

func TestRemoveDuringTick(t *testing.T) {
	s := New()
	victim := newCountingJob(s, 0, 1, Infinite)
	killer := newCountingJob(s, 0, 1, 1)
	killer.onRun = func(*countingJob) { s.Remove(victim) }

	s.Insert(killer)
	s.Insert(victim)

	s.Tick()
	assert.Empty(t, victim.runs(), "removed job must not run later in the same tick")
	assert.Equal(t, 0, s.Len())
}

func TestFaultContainment(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(WithLogger(zap.New(core)))

	bad := newCountingJob(s, 0, 1, 2)
	bad.onRun = func(*countingJob) { panic("job exploded") }
	good := newCountingJob(s, 0, 1, 2)
	s.Insert(bad)
	s.Insert(good)

	require.NotPanics(t, s.Tick)
	assert.Len(t, good.runs(), 1)
	assert.Equal(t, 1, bad.Executions(), "faulted run still counts")
	assert.Equal(t, 1, logs.FilterMessage("timer job fault").Len())
}

func TestRemoveByIDAndOwner(t *testing.T) {
	s := New()
	a := newCountingJob(s, 0, 1, Infinite)
	a.owners = []string{"troll", "player"}
	b := newCountingJob(s, 0, 1, Infinite)
	b.owners = []string{"troll"}
	c := newCountingJob(s, 0, 1, Infinite)
	s.Insert(a)
	s.Insert(b)
	s.Insert(c)

	assert.Equal(t, 1, s.RemoveOwnedBy("player"))
	assert.False(t, contains(s, a))
	assert.True(t, s.RemoveByID(c.ID()))
	assert.False(t, s.RemoveByID(c.ID()))
	assert.Equal(t, []Job{b}, s.Jobs())

	assert.True(t, s.Remove(b))
	assert.False(t, s.Remove(b))
	assert.Equal(t, 0, s.Len())
}

func TestRemovedJobCanBeReinserted(t *testing.T) {
	s := New()
	j := newCountingJob(s, 0, 1, Infinite)
	s.Insert(j)
	s.Remove(j)
	s.Insert(j)

	s.Tick()
	assert.Len(t, j.runs(), 1)
}

func TestReinsertDuringTick_WaitsForNextTick(t *testing.T) {
	s := New()
	j := newCountingJob(s, 0, 1, Infinite)
	mover := newCountingJob(s, 0, 1, 1)
	mover.onRun = func(*countingJob) {
		require.True(t, s.Remove(j))
		s.Insert(j)
	}
	s.Insert(mover)
	s.Insert(j)

	s.Tick()
	assert.Empty(t, j.runs(), "job inserted again mid-tick waits for the next tick")
	assert.True(t, contains(s, j))
	assert.Equal(t, 1, j.InitTime())

	s.Tick()
	assert.Equal(t, []int{2}, j.runs())
}

func TestRestoreWith_HoldsTicks(t *testing.T) {
	s := New()
	ticked := make(chan struct{})

	s.RestoreWith(7, nil, func() {
		go func() {
			s.Tick()
			close(ticked)
		}()
		assert.Never(t, func() bool {
			select {
			case <-ticked:
				return true
			default:
				return false
			}
		}, 50*time.Millisecond, 5*time.Millisecond, "tick ran while restoring")
		assert.Equal(t, 0, s.Time())
	})

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("tick never ran")
	}
	assert.Equal(t, 8, s.Time())
}

func TestReset(t *testing.T) {
	s := New()
	s.Insert(newCountingJob(s, 0, 1, Infinite))
	tickTo(s, 3)

	s.Reset()
	assert.Equal(t, 0, s.Time())
	assert.Equal(t, 0, s.Len())
}

func TestRestoreKeepsInitTime(t *testing.T) {
	s := New()
	j := newCountingJob(s, 5, 5, 2)
	j.JobState.initTime = 3

	s.Restore(4, []Job{j, nil})
	assert.Equal(t, 4, s.Time())
	assert.Equal(t, 1, s.Len())

	tickTo(s, 13)
	assert.Equal(t, []int{8, 13}, j.runs())
}

func TestSerializeJob(t *testing.T) {
	s := New()
	j := newCountingJob(s, 4, 2, 3)
	j.owners = []string{"x"}
	s.Insert(j)

	rec, err := SerializeJob(j)
	require.NoError(t, err)
	assert.Equal(t, "counting", rec.Type())
	assert.Equal(t, 1, rec["owners"])

	restored, err := RestoreJobState(rec)
	require.NoError(t, err)
	assert.Equal(t, j.ID(), restored.ID())
	assert.Equal(t, 4, restored.StartTime())
	assert.Equal(t, 2, restored.Interval())
	assert.Equal(t, 3, restored.Executions())
	assert.Equal(t, 0, restored.InitTime())

	_, err = RestoreJobState(types.Record{"start": 1})
	assert.Error(t, err)
}

type opaqueJob struct{ *JobState }

func (opaqueJob) Type() string { return "opaque" }
func (opaqueJob) Execute()     {}

func TestSerializeJob_NotSerializable(t *testing.T) {
	_, err := SerializeJob(opaqueJob{NewJobState(0, 1, 1)})
	assert.ErrorIs(t, err, ErrNotSerializable)
}

type tickCounter struct {
	mu       sync.Mutex
	ticks    int
	executed map[string]int
	faults   map[string]int
	active   int
}

func (o *tickCounter) Ticked() {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()
}

func (o *tickCounter) JobExecuted(tag string) {
	o.mu.Lock()
	o.executed[tag]++
	o.mu.Unlock()
}

func (o *tickCounter) JobFault(tag string) {
	o.mu.Lock()
	o.faults[tag]++
	o.mu.Unlock()
}

func (o *tickCounter) ActiveJobs(n int) {
	o.mu.Lock()
	o.active = n
	o.mu.Unlock()
}

func TestObserver(t *testing.T) {
	obs := &tickCounter{executed: map[string]int{}, faults: map[string]int{}}
	s := New(WithObserver(obs))
	s.Insert(newCountingJob(s, 0, 1, 2))

	s.Tick()
	s.Tick()
	s.Tick()

	assert.Equal(t, 3, obs.ticks)
	assert.Equal(t, 2, obs.executed["counting"])
	assert.Equal(t, 0, obs.active)
}

func TestStartStop(t *testing.T) {
	s := New(WithPeriod(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Active())
	assert.ErrorIs(t, s.Start(ctx), ErrRunning)

	assert.Eventually(t, func() bool { return s.Time() >= 3 }, time.Second, time.Millisecond)

	s.Stop()
	assert.False(t, s.Active())
	stopped := s.Time()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, stopped, s.Time(), "no ticks after Stop")

	s.Stop()
}

func TestRunReturnsOnCancel(t *testing.T) {
	s := New(WithPeriod(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	assert.Eventually(t, s.Active, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentInsertDuringTicks(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				s.Insert(newCountingJob(s, 0, 1, 1))
			}
		}()
	}
	for i := 0; i < 20; i++ {
		s.Tick()
	}
	wg.Wait()

	// Drain whatever was inserted after the last tick.
	s.Tick()
	s.Tick()
	assert.Equal(t, 0, s.Len())
}
