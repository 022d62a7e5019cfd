package board_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/store"
)

// countingKV records writes so tests can assert no-op paths skip persistence.
type countingKV struct {
	*store.Memory
	sets    int
	failSet error
}

func (c *countingKV) Set(ctx context.Context, key, value string) error {
	if c.failSet != nil {
		return c.failSet
	}
	c.sets++
	return c.Memory.Set(ctx, key, value)
}

func newKV() *countingKV {
	return &countingKV{Memory: store.NewMemory()}
}

func openStore(t *testing.T, kv board.Storage) *board.Store {
	t.Helper()
	s, err := board.Open(context.Background(), kv)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestOpenEmptyStorage(t *testing.T) {
	s := openStore(t, newKV())
	if got := len(s.Tasks()); got != 0 {
		t.Fatalf("len(Tasks()) = %d, want 0", got)
	}
	if s.NextID() != 1 {
		t.Fatalf("NextID() = %d, want 1", s.NextID())
	}
}

func TestAddAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newKV())

	var last int64
	for i := 0; i < 5; i++ {
		task, err := s.Add(ctx, "title", "desc", "2099-01-01")
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if task.ID <= last {
			t.Fatalf("Add() id = %d, want > %d", task.ID, last)
		}
		if task.Status != board.StatusTodo {
			t.Fatalf("Add() status = %q, want %q", task.Status, board.StatusTodo)
		}
		last = task.ID
	}
	if s.NextID() != 6 {
		t.Fatalf("NextID() after 5 adds = %d, want 6", s.NextID())
	}
}

func TestAddRejectsBlankFields(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	s := openStore(t, kv)

	cases := []struct {
		name              string
		title, desc, date string
		want              error
	}{
		{"blank title", "  ", "d", "2099-01-01", board.ErrMissingField},
		{"blank description", "t", "", "2099-01-01", board.ErrMissingField},
		{"blank date", "t", "d", "", board.ErrMissingField},
		{"bad date", "t", "d", "someday", board.ErrInvalidDueDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Add(ctx, tc.title, tc.desc, tc.date)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Add() error = %v, want %v", err, tc.want)
			}
		})
	}
	if kv.sets != 0 {
		t.Fatalf("rejected adds wrote %d times, want 0", kv.sets)
	}
	if s.NextID() != 1 || len(s.Tasks()) != 0 {
		t.Fatalf("rejected adds mutated state: next=%d tasks=%d", s.NextID(), len(s.Tasks()))
	}
}

func TestAddNormalizesPickerDate(t *testing.T) {
	s := openStore(t, newKV())
	task, err := s.Add(context.Background(), "t", "d", "03/15/2027")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if task.DueDate != "2027-03-15" {
		t.Fatalf("DueDate = %q, want %q", task.DueDate, "2027-03-15")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	s := openStore(t, kv)
	a, _ := s.Add(ctx, "a", "d", "2099-01-01")
	b, _ := s.Add(ctx, "b", "d", "2099-01-01")

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := s.Task(a.ID); ok {
		t.Fatalf("Task(%d) still present after delete", a.ID)
	}
	writes := kv.sets
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if kv.sets != writes {
		t.Fatalf("second Delete() wrote to storage")
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Fatalf("Tasks() = %+v, want only task %d", tasks, b.ID)
	}
}

func TestSetStatusKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newKV())
	orig, _ := s.Add(ctx, "a", "desc", "2099-01-01")

	if err := s.SetStatus(ctx, orig.ID, board.StatusInProgress); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	got, ok := s.Task(orig.ID)
	if !ok {
		t.Fatalf("Task(%d) not found", orig.ID)
	}
	want := orig
	want.Status = board.StatusInProgress
	if got != want {
		t.Fatalf("Task() = %+v, want %+v", got, want)
	}
}

func TestSetStatusUnknownIDIsNoop(t *testing.T) {
	kv := newKV()
	s := openStore(t, kv)
	if err := s.SetStatus(context.Background(), 42, board.StatusDone); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if kv.sets != 0 {
		t.Fatalf("SetStatus on unknown id wrote %d times", kv.sets)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newKV())
	task, _ := s.Add(ctx, "a", "d", "2099-01-01")
	err := s.SetStatus(ctx, task.ID, board.Status("archived"))
	if !errors.Is(err, board.ErrInvalidStatus) {
		t.Fatalf("SetStatus() error = %v, want ErrInvalidStatus", err)
	}
	if got, _ := s.Task(task.ID); got.Status != board.StatusTodo {
		t.Fatalf("status changed to %q", got.Status)
	}
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	s := openStore(t, kv)

	task, err := s.Add(ctx, "A", "d", "2099-01-01")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != 1 || tasks[0].Status != board.StatusTodo {
		t.Fatalf("after add Tasks() = %+v", tasks)
	}

	if err := s.SetStatus(ctx, task.ID, board.StatusDone); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	tasks = s.Tasks()
	if len(tasks) != 1 || tasks[0].Status != board.StatusDone {
		t.Fatalf("after move Tasks() = %+v", tasks)
	}

	if err := s.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(s.Tasks()) != 0 {
		t.Fatalf("after delete Tasks() = %+v, want empty", s.Tasks())
	}
	if s.NextID() != 2 {
		t.Fatalf("NextID() = %d, want 2", s.NextID())
	}

	raw, _, _ := kv.Get(ctx, board.KeyTasks)
	if raw != "[]" {
		t.Fatalf("persisted tasks = %q, want []", raw)
	}
	raw, _, _ = kv.Get(ctx, board.KeyNextID)
	if raw != "2" {
		t.Fatalf("persisted nextId = %q, want 2", raw)
	}
}

func TestReloadRestoresState(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	s := openStore(t, kv)
	a, _ := s.Add(ctx, "a", "d", "2099-01-01")
	_, _ = s.Add(ctx, "b", "d", "2099-01-02")
	_ = s.SetStatus(ctx, a.ID, board.StatusInProgress)
	_ = s.Delete(ctx, 2)

	reloaded := openStore(t, kv)
	if got, want := reloaded.Tasks(), s.Tasks(); len(got) != 1 || got[0] != want[0] {
		t.Fatalf("reloaded Tasks() = %+v, want %+v", got, want)
	}
	if reloaded.NextID() != 3 {
		t.Fatalf("reloaded NextID() = %d, want 3", reloaded.NextID())
	}
}

func TestOpenCorruptTasksStartsEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":      `{oops`,
		"wrong shape":   `{"id":1}`,
		"bad status":    `[{"id":1,"title":"a","description":"d","dueDate":"2099-01-01","status":"archived"}]`,
		"missing field": `[{"id":1,"title":"a","status":"todo"}]`,
		"fractional id": `[{"id":1.5,"title":"a","description":"d","dueDate":"2099-01-01","status":"todo"}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := newKV()
			_ = kv.Memory.Set(ctx, board.KeyTasks, raw)
			_ = kv.Memory.Set(ctx, board.KeyNextID, "7")
			s := openStore(t, kv)
			if len(s.Tasks()) != 0 {
				t.Fatalf("Tasks() = %+v, want empty", s.Tasks())
			}
			if s.NextID() != 7 {
				t.Fatalf("NextID() = %d, want 7", s.NextID())
			}
		})
	}
}

func TestOpenRepairsStaleCounter(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	_ = kv.Memory.Set(ctx, board.KeyTasks,
		`[{"id":4,"title":"a","description":"d","dueDate":"2099-01-01","status":"done"}]`)
	_ = kv.Memory.Set(ctx, board.KeyNextID, "2")

	s := openStore(t, kv)
	if s.NextID() != 5 {
		t.Fatalf("NextID() = %d, want 5", s.NextID())
	}
	task, err := s.Add(ctx, "b", "d", "2099-01-01")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if task.ID != 5 {
		t.Fatalf("Add() id = %d, want 5", task.ID)
	}
}

func TestOpenDropsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	_ = kv.Memory.Set(ctx, board.KeyTasks, `[
		{"id":1,"title":"first","description":"d","dueDate":"2099-01-01","status":"todo"},
		{"id":1,"title":"second","description":"d","dueDate":"2099-01-01","status":"done"}
	]`)
	s := openStore(t, kv)
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "first" {
		t.Fatalf("Tasks() = %+v, want only the first task", tasks)
	}
	if s.NextID() != 2 {
		t.Fatalf("NextID() = %d, want 2", s.NextID())
	}
}

func TestOpenFailsClosedOnStorageReadError(t *testing.T) {
	var logs bytes.Buffer
	s, err := board.Open(context.Background(), failingGet{}, board.WithLogger(log.New(&logs)))
	if err != nil {
		t.Fatalf("Open() error = %v, want default state", err)
	}
	if len(s.Tasks()) != 0 || s.NextID() != 1 {
		t.Fatalf("state = %d tasks / next %d, want empty / 1", len(s.Tasks()), s.NextID())
	}
	if !strings.Contains(logs.String(), "persisted board unreadable") {
		t.Fatalf("missing warning, logs = %q", logs.String())
	}
}

type failingGet struct{}

func (failingGet) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingGet) Set(context.Context, string, string) error { return nil }

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	s := openStore(t, kv)
	task, _ := s.Add(ctx, "a", "d", "2099-01-01")

	kv.failSet = errors.New("read-only")
	if _, err := s.Add(ctx, "b", "d", "2099-01-01"); err == nil {
		t.Fatalf("Add() error = nil with failing storage")
	}
	if err := s.SetStatus(ctx, task.ID, board.StatusDone); err == nil {
		t.Fatalf("SetStatus() error = nil with failing storage")
	}
	if err := s.Delete(ctx, task.ID); err == nil {
		t.Fatalf("Delete() error = nil with failing storage")
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0] != task {
		t.Fatalf("Tasks() = %+v, want unchanged %+v", tasks, task)
	}
	if s.NextID() != 2 {
		t.Fatalf("NextID() = %d, want 2", s.NextID())
	}
}

func TestSubscribeReceivesEverySnapshot(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newKV())

	var snapshots [][]board.Task
	cancel := s.Subscribe(func(tasks []board.Task) {
		snapshots = append(snapshots, tasks)
	})

	a, _ := s.Add(ctx, "a", "d", "2099-01-01")
	_ = s.SetStatus(ctx, a.ID, board.StatusDone)
	_ = s.SetStatus(ctx, 99, board.StatusDone) // no-op, no snapshot
	_ = s.Delete(ctx, a.ID)

	if len(snapshots) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snapshots))
	}
	if snapshots[1][0].Status != board.StatusDone {
		t.Fatalf("second snapshot status = %q, want done", snapshots[1][0].Status)
	}
	if len(snapshots[2]) != 0 {
		t.Fatalf("last snapshot = %+v, want empty", snapshots[2])
	}

	cancel()
	_, _ = s.Add(ctx, "b", "d", "2099-01-01")
	if len(snapshots) != 3 {
		t.Fatalf("listener called after cancel")
	}
}

func TestStoresSharingStorageDoNotReuseIDs(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	cli, err := board.Open(ctx, kv)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	web, err := board.Open(ctx, kv)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	fromCLI, err := cli.Add(ctx, "from cli", "d", "2099-01-01")
	if err != nil {
		t.Fatalf("cli Add() error = %v", err)
	}
	fromWeb, err := web.Add(ctx, "from web", "d", "2099-01-01")
	if err != nil {
		t.Fatalf("web Add() error = %v", err)
	}
	if fromCLI.ID != 1 || fromWeb.ID != 2 {
		t.Fatalf("ids = %d, %d; want 1, 2", fromCLI.ID, fromWeb.ID)
	}

	if err := cli.SetStatus(ctx, fromWeb.ID, board.StatusDone); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if got, _ := cli.Task(fromWeb.ID); got.Status != board.StatusDone {
		t.Fatalf("task written by the other store = %+v, want done", got)
	}

	reopened, err := board.Open(ctx, kv)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	tasks := reopened.Tasks()
	if len(tasks) != 2 || tasks[0].Title != "from cli" || tasks[1].Title != "from web" {
		t.Fatalf("reopened Tasks() = %+v, want both tasks", tasks)
	}
	if reopened.NextID() != 3 {
		t.Fatalf("reopened NextID() = %d, want 3", reopened.NextID())
	}
}

func TestReloadPicksUpOtherWriters(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	reader := openStore(t, kv)
	writer := openStore(t, kv)

	var snapshots int
	reader.Subscribe(func([]board.Task) { snapshots++ })

	if err := reader.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if snapshots != 0 {
		t.Fatalf("Reload() without changes sent %d snapshots, want 0", snapshots)
	}

	_, _ = writer.Add(ctx, "elsewhere", "d", "2099-01-01")
	if err := reader.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(reader.Tasks()) != 1 || reader.NextID() != 2 {
		t.Fatalf("after Reload() tasks = %+v next = %d", reader.Tasks(), reader.NextID())
	}
	if snapshots != 1 {
		t.Fatalf("snapshots = %d, want 1", snapshots)
	}
}

// flakyGet fails reads once armed.
type flakyGet struct {
	*store.Memory
	fail bool
}

func (f *flakyGet) Get(ctx context.Context, key string) (string, bool, error) {
	if f.fail {
		return "", false, errors.New("connection reset")
	}
	return f.Memory.Get(ctx, key)
}

func TestMutationFailsOnStorageReadError(t *testing.T) {
	ctx := context.Background()
	kv := &flakyGet{Memory: store.NewMemory()}
	s := openStore(t, kv)
	task, _ := s.Add(ctx, "a", "d", "2099-01-01")

	kv.fail = true
	if _, err := s.Add(ctx, "b", "d", "2099-01-01"); err == nil {
		t.Fatalf("Add() error = nil with unreadable storage")
	}
	if err := s.Delete(ctx, task.ID); err == nil {
		t.Fatalf("Delete() error = nil with unreadable storage")
	}
	if err := s.Reload(ctx); err == nil {
		t.Fatalf("Reload() error = nil with unreadable storage")
	}
	if tasks := s.Tasks(); len(tasks) != 1 || tasks[0] != task {
		t.Fatalf("Tasks() = %+v, want unchanged", tasks)
	}

	kv.fail = false
	raw, _, _ := kv.Memory.Get(ctx, board.KeyTasks)
	if !strings.Contains(raw, `"title":"a"`) {
		t.Fatalf("persisted tasks = %s, want the first task kept", raw)
	}
}

// txKV runs Update calls through a lock and counts them.
type txKV struct {
	*store.Memory
	updates int
	failTx  error
}

func (k *txKV) Update(ctx context.Context, fn func(board.Storage) error) error {
	k.updates++
	if k.failTx != nil {
		return k.failTx
	}
	return fn(k.Memory)
}

func TestMutationsUseStorageTransactions(t *testing.T) {
	ctx := context.Background()
	kv := &txKV{Memory: store.NewMemory()}
	s := openStore(t, kv)

	a, _ := s.Add(ctx, "a", "d", "2099-01-01")
	_ = s.SetStatus(ctx, a.ID, board.StatusDone)
	_ = s.Delete(ctx, 42)
	if kv.updates != 3 {
		t.Fatalf("updates = %d, want 3", kv.updates)
	}

	kv.failTx = errors.New("serialization failure")
	if err := s.Delete(ctx, a.ID); err == nil {
		t.Fatalf("Delete() error = nil with failing transaction")
	}
	if got, ok := s.Task(a.ID); !ok || got.Status != board.StatusDone {
		t.Fatalf("Task() = %+v, %v; want the done task kept", got, ok)
	}
}

func TestOpenDropsInvalidTasksIndividually(t *testing.T) {
	ctx := context.Background()
	kv := newKV()
	_ = kv.Memory.Set(ctx, board.KeyTasks, `[
		{"id":1,"title":"good","description":"d","dueDate":"2099-01-01","status":"todo"},
		{"id":2,"title":"bad","description":"d","dueDate":"2099-01-01","status":"archived"}
	]`)
	var logs bytes.Buffer
	s, err := board.Open(ctx, kv, board.WithLogger(log.New(&logs)))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if tasks := s.Tasks(); len(tasks) != 1 || tasks[0].Title != "good" {
		t.Fatalf("Tasks() = %+v, want only the valid task", tasks)
	}
	if !strings.Contains(logs.String(), "dropping invalid persisted task") {
		t.Fatalf("missing warning, logs = %q", logs.String())
	}
}

func TestSnapshotHoldsOffMutations(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newKV())

	added := make(chan struct{})
	var seen int
	s.Snapshot(func(tasks []board.Task) {
		seen = len(tasks)
		go func() {
			_, _ = s.Add(ctx, "a", "d", "2099-01-01")
			close(added)
		}()
		select {
		case <-added:
			t.Errorf("Add() completed while Snapshot() held the board")
		case <-time.After(50 * time.Millisecond):
		}
	})
	<-added
	if seen != 0 || len(s.Tasks()) != 1 {
		t.Fatalf("seen = %d, tasks = %d; want 0 then 1", seen, len(s.Tasks()))
	}
}
