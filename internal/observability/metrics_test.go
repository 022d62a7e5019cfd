package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MihkelHunter/mkBoard/internal/board"
)

func TestObserveTasksSetsLaneGauges(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveTasks([]board.Task{
		{ID: 1, Status: board.StatusTodo},
		{ID: 2, Status: board.StatusTodo},
		{ID: 3, Status: board.StatusDone},
	})
	if got := testutil.ToFloat64(m.TasksByStatus.WithLabelValues("todo")); got != 2 {
		t.Fatalf("todo gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TasksByStatus.WithLabelValues("in-progress")); got != 0 {
		t.Fatalf("in-progress gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.TasksByStatus.WithLabelValues("done")); got != 1 {
		t.Fatalf("done gauge = %v, want 1", got)
	}
}

func TestObserveMutationOutcome(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveMutation("add", nil)
	m.ObserveMutation("add", errors.New("boom"))
	m.ObserveMutation("add", nil)
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("add", "ok")); got != 2 {
		t.Fatalf("ok counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Mutations.WithLabelValues("add", "error")); got != 1 {
		t.Fatalf("error counter = %v, want 1", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewMetrics("mkboard_test")
	m.ObserveMutation("delete", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "mkboard_test_board_mutations_total") {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
