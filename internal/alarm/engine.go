// Package alarm fires one-shot due-date alarms for tasks.
//
// The engine keeps a single timer armed for the earliest pending due time and
// re-plans it whenever the task store changes, so nothing polls while no alarm
// is near. Every firing goes through task.Store.MarkAlerted, which only
// succeeds once per task and never for a completed task. The in-app event and
// the system notification are delivered independently; a slow notifier never
// holds back the banner.
package alarm

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"

	"nexttodo/internal/task"
)

var ErrAlreadyRunning = errors.New("alarm engine already started")

const (
	DefaultResync  = 15 * time.Second
	notifyTimeout  = 5 * time.Second
	eventBuffer    = 16
	notifyTitle    = "⏰ Alarm"
	bannerHeadline = "⏰ Time's up!"
)

// Event is one fired alarm, delivered to the in-app banner.
type Event struct {
	TaskID  string
	Text    string
	Due     time.Time
	FiredAt time.Time
}

// Message is the banner text for the event.
func (e Event) Message() string {
	return bannerHeadline + "\n[" + e.Text + "]"
}

type Engine struct {
	store    *task.Store
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
	resync   time.Duration
	events   chan Event
	started  atomic.Bool
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithResync bounds how long Run sleeps without re-checking, which absorbs
// wall-clock jumps such as suspend and resume.
func WithResync(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.resync = d
		}
	}
}

func New(store *task.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		notifier: Discard,
		logger:   log.Default(),
		now:      time.Now,
		resync:   DefaultResync,
		events:   make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events delivers fired alarms while Run is active.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Check marks every pending task whose due time is at or before now as alerted
// and returns the fired alarms. Tasks with unparseable due dates are skipped.
// Check does not notify; Run hands each event to Events and the notifier.
func (e *Engine) Check(ctx context.Context, now time.Time) []Event {
	loc := e.store.Location()
	var fired []Event
	for _, t := range e.store.Snapshot() {
		if t.Completed || t.Alerted || t.DueDate == "" {
			continue
		}
		due, ok, err := t.Due(loc)
		if err != nil {
			e.logger.Debug("skipping task with unreadable due date", "id", t.ID, "due", t.DueDate, "err", err)
			continue
		}
		if !ok || due.After(now) {
			continue
		}
		transitioned, err := e.store.MarkAlerted(ctx, t.ID)
		if err != nil {
			// The in-memory flag is set; only the flush failed.
			e.logger.Warn("persisting alerted flag failed", "id", t.ID, "err", err)
		}
		if !transitioned {
			continue
		}
		ev := Event{TaskID: t.ID, Text: t.Text, Due: due, FiredAt: now}
		e.logger.Info("alarm fired", "id", t.ID, "text", t.Text, "due", due)
		fired = append(fired, ev)
	}
	return fired
}

func (e *Engine) sendNotification(ctx context.Context, ev Event) {
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	err := e.notifier.Notify(nctx, Notification{Title: notifyTitle, Body: ev.Text, Tag: ev.TaskID})
	if err != nil {
		e.logger.Warn("system notification failed", "id", ev.TaskID, "err", err)
	}
}

// NextDue returns the earliest due time among pending tasks.
func (e *Engine) NextDue() (time.Time, bool) {
	loc := e.store.Location()
	var next time.Time
	found := false
	for _, t := range e.store.Snapshot() {
		if !t.Pending(loc) {
			continue
		}
		due, _, _ := t.Due(loc)
		if !found || due.Before(next) {
			next, found = due, true
		}
	}
	return next, found
}

// Run fires alarms until ctx is cancelled. An engine runs once; any later or
// concurrent call returns ErrAlreadyRunning. Notifications still in flight are
// waited for before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var notifications conc.WaitGroup
	defer notifications.Wait()

	changes, unwatch := e.store.Watch()
	defer unwatch()

	timer := time.NewTimer(e.resync)
	timer.Stop()
	defer timer.Stop()

	for {
		for _, ev := range e.Check(ctx, e.now()) {
			notifications.Go(func() { e.sendNotification(ctx, ev) })
			select {
			case e.events <- ev:
			case <-ctx.Done():
				return nil
			}
		}

		timer.Reset(e.wait())

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}
	}
}

func (e *Engine) wait() time.Duration {
	next, ok := e.NextDue()
	if !ok {
		return e.resync
	}
	d := next.Sub(e.now())
	if d < 0 {
		d = 0
	}
	if d > e.resync {
		d = e.resync
	}
	return d
}
