package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRunsEagerlyToFirstSuspension(t *testing.T) {
	c, _ := newManualContext()

	var ev Event
	var steps []string
	task := Go(c, func(t *Task) {
		steps = append(steps, "start")
		ev.Await(t)
		steps = append(steps, "resumed")
	})

	assert.Equal(t, []string{"start"}, steps)
	assert.False(t, task.Done())

	ev.Notify()
	// Notify only schedules; the body runs from the poll
	assert.Equal(t, []string{"start"}, steps)

	c.PollOnce()
	assert.Equal(t, []string{"start", "resumed"}, steps)
	assert.True(t, task.Done())
}

func TestTaskWithoutSuspensionFinishesInGo(t *testing.T) {
	c, _ := newManualContext()

	ran := false
	task := Go(c, func(*Task) { ran = true })
	assert.True(t, ran)
	assert.True(t, task.Done())
	assert.Equal(t, Never, c.NextWakeTime())
}

func TestEventNotifyBeforeAwaitIsConsumed(t *testing.T) {
	c, _ := newManualContext()

	var ev Event
	ev.Notify()

	awaited := 0
	task := Go(c, func(t *Task) {
		ev.Await(t)
		awaited++
		ev.Await(t)
		awaited++
	})

	// First await consumed the earlier notify without suspending
	assert.Equal(t, 1, awaited)
	assert.False(t, task.Done())

	c.PollOnce()
	assert.Equal(t, 1, awaited, "second await must suspend")

	ev.Notify()
	ev.Notify()
	c.PollOnce()
	assert.Equal(t, 2, awaited)
	assert.True(t, task.Done())
}

func TestEventReset(t *testing.T) {
	var ev Event
	ev.Notify()
	ev.Reset()
	_, ok := ev.TryTake()
	assert.False(t, ok)
}

func TestTaskJoin(t *testing.T) {
	c, _ := newManualContext()

	var ev Event
	worker := Go(c, func(t *Task) { ev.Await(t) })

	joined := false
	joiner := Go(c, func(t *Task) {
		t.Join(worker)
		joined = true
	})
	assert.False(t, joined)

	ev.Notify()
	c.PollOnce() // resumes worker, which completes and wakes joiner
	assert.True(t, worker.Done())
	c.PollOnce()
	assert.True(t, joined)
	assert.True(t, joiner.Done())
}

func TestJoinFinishedTaskDoesNotSuspend(t *testing.T) {
	c, _ := newManualContext()

	done := Go(c, func(*Task) {})
	joined := false
	Go(c, func(t *Task) {
		t.Join(done)
		joined = true
	})
	assert.True(t, joined)
}

func TestTaskSleep(t *testing.T) {
	c, clock := newManualContext()

	var woke []uint64
	task := Go(c, func(t *Task) {
		for i := 0; i < 3; i++ {
			t.SleepFor(10 * time.Millisecond)
			woke = append(woke, t.Context().Now().Millis())
		}
	})

	for ms := uint64(0); ms <= 40; ms += 5 {
		clock.SetMillis(ms)
		c.PollOnce() // sleeper fires and marks the executor
		c.PollOnce() // executor resumes the task
	}

	assert.Equal(t, []uint64{10, 20, 30}, woke)
	assert.True(t, task.Done())
}

func TestTaskYield(t *testing.T) {
	c, _ := newManualContext()

	count := 0
	Go(c, func(t *Task) {
		for i := 0; i < 3; i++ {
			count++
			t.Yield()
		}
	})
	assert.Equal(t, 1, count)
	c.PollOnce()
	assert.Equal(t, 2, count)
	c.PollOnce()
	assert.Equal(t, 3, count)
}

func TestTaskPanicInGo(t *testing.T) {
	c, _ := newManualContext()

	assert.PanicsWithValue(t, "boom", func() {
		Go(c, func(*Task) { panic("boom") })
	})
}

func TestTaskPanicAfterResumeIsFatalToPoll(t *testing.T) {
	c, _ := newManualContext()

	var ev Event
	Go(c, func(t *Task) {
		ev.Await(t)
		panic("resumed and failed")
	})

	ev.Notify()
	assert.PanicsWithValue(t, "resumed and failed", c.PollOnce)
}

func TestTaskWaitFromOtherGoroutine(t *testing.T) {
	c := NewContext(nil)

	var ev Event
	task := Go(c, func(t *Task) { ev.Await(t) })

	var wg sync.WaitGroup
	wg.Add(1)
	waited := make(chan struct{})
	go func() {
		defer wg.Done()
		task.Wait()
		close(waited)
	}()

	ev.Notify()
	deadline := time.Now().Add(5 * time.Second)
	for !task.Done() && time.Now().Before(deadline) {
		c.WaitForWork(c.Now().Add(time.Millisecond))
		c.PollOnce()
	}
	require.True(t, task.Done())
	wg.Wait()

	select {
	case <-waited:
	default:
		t.Fatal("Wait did not return after the task finished")
	}
}

func TestNotification(t *testing.T) {
	var n Notification
	assert.False(t, n.Notified())
	assert.False(t, n.WaitTimeout(time.Millisecond))

	go func() {
		time.Sleep(5 * time.Millisecond)
		n.Notify()
	}()
	n.Wait()
	assert.True(t, n.Notified())
	assert.True(t, n.WaitTimeout(0))
}

func TestExecutorCoalescesSchedules(t *testing.T) {
	c, _ := newManualContext()

	var ev Event
	resumes := 0
	task := Go(c, func(t *Task) {
		for {
			ev.Await(t)
			resumes++
		}
	})

	task.Wake()
	task.Wake()
	ev.Notify()
	c.PollOnce()
	assert.Equal(t, 1, resumes)
}
