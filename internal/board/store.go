package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Store owns the task list and the next-id counter. Every mutation starts from
// the state in Storage, writes the full result back before it becomes visible
// in memory, then sends the full task list to every listener.
//
// All methods are safe for concurrent use; operations are serialized.
type Store struct {
	mu        sync.Mutex
	storage   Storage
	logger    *log.Logger
	tasks     []Task
	nextID    int64
	listeners map[uint64]func([]Task)
	listenSeq uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load warnings and mutation debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open loads persisted state from storage. Missing keys give an empty board
// with counter 1. A value that cannot be read, parsed or fails the schema is
// logged and replaced by the default.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, errors.New("board: nil storage")
	}
	s := &Store{
		storage:   storage,
		logger:    log.New(io.Discard),
		nextID:    1,
		listeners: make(map[uint64]func([]Task)),
	}
	for _, opt := range opts {
		opt(s)
	}
	st, err := s.read(ctx, storage)
	if err != nil {
		s.logger.Warn("persisted board unreadable, starting with an empty board", "err", err)
		st = state{tasks: []Task{}, nextID: 1}
	}
	s.tasks, s.nextID = st.tasks, st.nextID
	s.logger.Debug("board loaded", "tasks", len(s.tasks), "next_id", s.nextID)
	return s, nil
}

type state struct {
	tasks  []Task
	nextID int64
}

// read fetches both keys from st. Storage errors are returned; values that
// do not decode fall back to the default and are logged.
func (s *Store) read(ctx context.Context, st Storage) (state, error) {
	out := state{nextID: 1}

	raw, ok, err := st.Get(ctx, KeyTasks)
	if err != nil {
		return state{}, fmt.Errorf("read %s: %w", KeyTasks, err)
	}
	if ok {
		tasks, rejected, err := decodeTasks(raw)
		if err != nil {
			s.logger.Warn("persisted tasks invalid, starting with an empty board", "key", KeyTasks, "err", err)
		}
		for _, r := range rejected {
			s.logger.Warn("dropping invalid persisted task", "err", r)
		}
		out.tasks = tasks
	}
	out.tasks = s.dropDuplicateIDs(out.tasks)

	raw, ok, err = st.Get(ctx, KeyNextID)
	if err != nil {
		return state{}, fmt.Errorf("read %s: %w", KeyNextID, err)
	}
	if ok {
		n, err := decodeNextID(raw)
		if err != nil {
			s.logger.Warn("persisted counter invalid, using default", "key", KeyNextID, "err", err)
		} else {
			out.nextID = n
		}
	}

	if highest := maxID(out.tasks); out.nextID <= highest {
		s.logger.Warn("persisted counter behind task ids, repairing", "next_id", out.nextID, "max_id", highest)
		out.nextID = highest + 1
	}
	return out, nil
}

func (s *Store) dropDuplicateIDs(tasks []Task) []Task {
	seen := make(map[int64]bool, len(tasks))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			s.logger.Warn("dropping task with duplicate id", "id", t.ID, "title", t.Title)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}

// mutate re-reads the persisted board, lets fn change it and writes the
// result back. Other processes sharing the storage may have written since
// the last call, so the in-memory copy is never used as the base. When the
// storage implements Transactor the whole cycle runs in one transaction.
// fn reports whether it changed anything; unchanged boards are not written.
// Must be called with s.mu held.
func (s *Store) mutate(ctx context.Context, fn func(*state) (bool, error)) error {
	var (
		next    state
		changed bool
	)
	cycle := func(st Storage) error {
		cur, err := s.read(ctx, st)
		if err != nil {
			return err
		}
		changed, err = fn(&cur)
		if err != nil {
			return err
		}
		if changed {
			if err := persist(ctx, st, cur.tasks, cur.nextID); err != nil {
				return err
			}
		}
		next = cur
		return nil
	}

	var err error
	if tx, ok := s.storage.(Transactor); ok {
		err = tx.Update(ctx, cycle)
	} else {
		err = cycle(s.storage)
	}
	if err != nil {
		return err
	}
	s.commit(next, changed)
	return nil
}

// commit replaces the in-memory board. Listeners hear about it when this
// store changed something or another writer did.
func (s *Store) commit(next state, changed bool) {
	if !changed && next.nextID == s.nextID && slices.Equal(next.tasks, s.tasks) {
		return
	}
	s.tasks, s.nextID = next.tasks, next.nextID
	s.notify()
}

// Reload picks up changes other processes made to the storage. A storage
// error leaves the in-memory board as it was.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.read(ctx, s.storage)
	if err != nil {
		return err
	}
	s.commit(next, false)
	return nil
}

// Add creates a task in the todo lane. Blank fields or an unparseable due
// date are rejected before anything is mutated or written.
func (s *Store) Add(ctx context.Context, title, description, dueDate string) (Task, error) {
	if err := ValidateInput(title, description, dueDate); err != nil {
		return Task{}, err
	}
	due, err := NormalizeDueDate(dueDate)
	if err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var t Task
	err = s.mutate(ctx, func(st *state) (bool, error) {
		t = Task{
			ID:          st.nextID,
			Title:       strings.TrimSpace(title),
			Description: strings.TrimSpace(description),
			DueDate:     due,
			Status:      StatusTodo,
		}
		st.tasks = append(st.tasks, t)
		st.nextID++
		return true, nil
	})
	if err != nil {
		return Task{}, err
	}
	s.logger.Debug("task added", "id", t.ID, "title", t.Title, "due", t.DueDate)
	return t, nil
}

// Delete removes the task with the given id. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	err := s.mutate(ctx, func(st *state) (bool, error) {
		i := indexOf(st.tasks, id)
		if i < 0 {
			return false, nil
		}
		st.tasks = slices.Delete(st.tasks, i, i+1)
		removed = true
		return true, nil
	})
	if err != nil {
		return err
	}
	if removed {
		s.logger.Debug("task deleted", "id", id)
	}
	return nil
}

// SetStatus moves a task to another lane. Unknown ids are a no-op; a status
// outside the three lanes is rejected with ErrInvalidStatus.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var moved bool
	err := s.mutate(ctx, func(st *state) (bool, error) {
		i := indexOf(st.tasks, id)
		if i < 0 {
			return false, nil
		}
		st.tasks[i].Status = status
		moved = true
		return true, nil
	})
	if err != nil {
		return err
	}
	if moved {
		s.logger.Debug("task moved", "id", id, "status", status)
	}
	return nil
}

// Tasks returns a copy of all tasks in creation order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Task looks up a single task.
func (s *Store) Task(id int64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

// NextID returns the id the next added task will get.
func (s *Store) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Lanes returns the tasks grouped by status in lane order.
func (s *Store) Lanes() []Lane {
	return GroupByLane(s.Tasks())
}

// Snapshot calls fn with the current tasks while holding the store lock, so no
// mutation or listener notification can run until fn returns. fn must not
// call back into the store.
func (s *Store) Snapshot(fn func([]Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(cloneTasks(s.tasks))
}

// Subscribe registers fn to receive the full task list after every mutation.
// fn runs while the store is locked and must not call back into the store.
// The returned func removes the listener.
func (s *Store) Subscribe(fn func([]Task)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listenSeq++
	id := s.listenSeq
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func persist(ctx context.Context, st Storage, tasks []Task, nextID int64) error {
	encoded, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := st.Set(ctx, KeyTasks, encoded); err != nil {
		return fmt.Errorf("persist %s: %w", KeyTasks, err)
	}
	if err := st.Set(ctx, KeyNextID, encodeNextID(nextID)); err != nil {
		return fmt.Errorf("persist %s: %w", KeyNextID, err)
	}
	return nil
}

func (s *Store) notify() {
	for _, fn := range s.listeners {
		fn(cloneTasks(s.tasks))
	}
}

func indexOf(tasks []Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

func maxID(tasks []Task) int64 {
	var highest int64
	for _, t := range tasks {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest
}
