package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"nexttodo/internal/storage"
)

// DefaultKey is the storage key the list is persisted under.
const DefaultKey = "my-todos"

// Store is the authoritative ordered task list for a session. Every mutation
// flushes the whole list to the backing KV.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	key      string
	loc      *time.Location
	logger   *log.Logger
	tasks    []Task
	watchers map[int]chan struct{}
	nextW    int
}

type StoreOption func(*Store)

// WithLocation sets the zone used for due dates written without one.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(kv storage.KV, key string, opts ...StoreOption) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		kv:       kv,
		key:      key,
		loc:      time.Local,
		logger:   log.Default(),
		watchers: map[int]chan struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used to interpret zone-less due dates.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Initialize loads the persisted list, dropping completed tasks. On missing
// data the list starts empty. On unreadable or malformed data the list also
// starts empty and the cause is returned so callers can report it; the store
// is usable either way.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil

	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("reading tasks failed, starting empty", "key", s.key, "err", err)
		return fmt.Errorf("read %s: %w", s.key, err)
	}

	loaded, err := Decode(data)
	if err != nil {
		s.logger.Warn("persisted tasks are malformed, starting empty", "key", s.key, "err", err)
		return err
	}
	active := make([]Task, 0, len(loaded))
	for _, t := range loaded {
		if t.Completed {
			continue
		}
		active = append(active, t)
	}
	s.tasks = active
	s.logger.Debug("tasks loaded", "active", len(active), "archived", len(loaded)-len(active))
	return nil
}

// Append adds a task at the end of the list. Text is trimmed; empty text is a
// no-op and reports false.
func (s *Store) Append(ctx context.Context, in NewTask) (Task, bool, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Task{}, false, nil
	}
	prio, err := ParsePriority(string(in.Priority))
	if err != nil {
		return Task{}, false, err
	}
	cat, err := ParseCategory(string(in.Category))
	if err != nil {
		return Task{}, false, err
	}
	due := strings.TrimSpace(in.DueDate)
	if _, _, err := ParseDue(due, s.loc); err != nil {
		return Task{}, false, err
	}

	t := Task{
		ID:       newID(),
		Text:     text,
		Note:     strings.TrimSpace(in.Note),
		Priority: prio,
		DueDate:  due,
		Category: cat,
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	err = s.flushLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return t, true, err
}

// MarkComplete sets completed on the task with id. Unknown ids are a no-op.
func (s *Store) MarkComplete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug("complete ignored, unknown task", "id", id)
		return false, nil
	}
	if s.tasks[i].Completed {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks[i].Completed = true
	err := s.flushLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return true, err
}

// MarkAlerted moves a pending task to alerted. It reports true only for the
// transition itself: tasks already alerted, completed, without a usable due
// date, or unknown are left untouched.
func (s *Store) MarkAlerted(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Debug("alert ignored, unknown task", "id", id)
		return false, nil
	}
	if !s.tasks[i].Pending(s.loc) {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks[i].Alerted = true
	err := s.flushLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return true, err
}

// Get returns the task with id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Task{}, false
	}
	return s.tasks[i], true
}

// Snapshot returns a copy of the current list in store order.
func (s *Store) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Watch returns a channel that receives a value after mutations. Signals
// coalesce: a slow reader sees at most one pending value.
func (s *Store) Watch() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextW
	s.nextW++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) flushLocked(ctx context.Context) error {
	data, err := Encode(s.tasks)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Error("flushing tasks failed", "key", s.key, "err", err)
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}
