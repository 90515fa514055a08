package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
)

// plannedRetention is how long a delivered reminder id keeps blocking ScheduleOnce.
const plannedRetention = 24 * time.Hour

// ReminderEvent announces an upcoming occurrence.
type ReminderEvent struct {
	ID           string
	OccurrenceID string
	Title        string
	// StartsAt is when the occurrence begins. A reminder still queued after it
	// is expired instead of delivered. Zero never expires.
	StartsAt  time.Time
	TriggerAt time.Time
}

func (ev ReminderEvent) expired(now time.Time) bool {
	return !ev.StartsAt.IsZero() && ev.StartsAt.Before(now)
}

// reminderQueue is a min-heap on TriggerAt; ties go to the earlier occurrence, then the id.
type reminderQueue []ReminderEvent

func (q reminderQueue) Len() int { return len(q) }

func (q reminderQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if !a.TriggerAt.Equal(b.TriggerAt) {
		return a.TriggerAt.Before(b.TriggerAt)
	}
	if !a.StartsAt.Equal(b.StartsAt) {
		return a.StartsAt.Before(b.StartsAt)
	}
	return a.ID < b.ID
}

func (q reminderQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *reminderQueue) Push(x any) { *q = append(*q, x.(ReminderEvent)) }

func (q *reminderQueue) Pop() any {
	old := *q
	last := old[len(old)-1]
	*q = old[:len(old)-1]
	return last
}

// Engine delivers reminders on C when their trigger time comes. Delivery never
// blocks: when the consumer lags, events are counted as dropped.
type Engine struct {
	mu      sync.Mutex
	queue   reminderQueue
	out     chan ReminderEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool

	dropped uint64
	expired uint64
	// planned maps ids accepted by ScheduleOnce to their trigger time.
	planned map[string]time.Time
	now     func() time.Time
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:   make(reminderQueue, 0),
		out:     make(chan ReminderEvent, bufferSize),
		wakeup:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		planned: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (e *Engine) C() <-chan ReminderEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.run()
}

// Stop ends delivery and closes C. Queued reminders are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(ev ReminderEvent) error {
	_, err := e.enqueue(ev, false)
	return err
}

// ScheduleOnce queues ev unless the same id was accepted within the last day,
// so re-planning a day does not repeat reminders. It reports whether ev was queued.
func (e *Engine) ScheduleOnce(ev ReminderEvent) (bool, error) {
	return e.enqueue(ev, true)
}

func (e *Engine) enqueue(ev ReminderEvent, once bool) (bool, error) {
	if ev.TriggerAt.IsZero() {
		return false, ErrInvalidTriggerTime
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return false, ErrEngineStopped
	}
	if once {
		if _, seen := e.planned[ev.ID]; seen {
			return false, nil
		}
		e.planned[ev.ID] = ev.TriggerAt
	}
	heap.Push(&e.queue, ev)
	e.signalWakeup()
	return true, nil
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Planned is the number of ids ScheduleOnce still remembers.
func (e *Engine) Planned() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.planned)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// Expired counts reminders discarded because their occurrence had already started.
func (e *Engine) Expired() uint64 {
	return atomic.LoadUint64(&e.expired)
}

func (e *Engine) run() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, ok := e.head()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		timer = resetTimer(timer, max(time.Until(next.TriggerAt), 0))
		select {
		case <-timer.C:
			for _, ev := range e.takeDue(e.now()) {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) head() (ReminderEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return ReminderEvent{}, false
	}
	return e.queue[0], true
}

// takeDue pops every reminder triggering at or before now, leaving out the ones
// whose occurrence already began, and forgets planned ids older than the retention.
func (e *Engine) takeDue(now time.Time) []ReminderEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	due := make([]ReminderEvent, 0)
	for len(e.queue) > 0 && !e.queue[0].TriggerAt.After(now) {
		ev := heap.Pop(&e.queue).(ReminderEvent)
		if ev.expired(now) {
			atomic.AddUint64(&e.expired, 1)
			continue
		}
		due = append(due, ev)
	}
	e.forgetLocked(now.Add(-plannedRetention))
	return due
}

func (e *Engine) forgetLocked(cutoff time.Time) {
	for id, at := range e.planned {
		if at.Before(cutoff) {
			delete(e.planned, id)
		}
	}
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
