package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/export"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

type setStatusRequest struct {
	// Status accepts a status name or a lane id such as "done-cards".
	Status string `json:"status"`
}

type listTasksResponse struct {
	Tasks  []board.View `json:"tasks"`
	NextID int64        `json:"nextId"`
}

type laneView struct {
	Status board.Status `json:"status"`
	Title  string       `json:"title"`
	Tasks  []board.View `json:"tasks"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, listTasksResponse{
		Tasks:  board.Views(s.store.Tasks(), s.now()),
		NextID: s.store.NextID(),
	})
}

func (s *Server) handleListLanes(w http.ResponseWriter, _ *http.Request) {
	today := s.now()
	lanes := s.store.Lanes()
	out := make([]laneView, 0, len(lanes))
	for _, lane := range lanes {
		out = append(out, laneView{
			Status: lane.Status,
			Title:  lane.Title,
			Tasks:  board.Views(lane.Tasks, today),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"lanes": out})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	task, err := s.store.Add(r.Context(), req.Title, req.Description, req.DueDate)
	s.metrics.ObserveMutation("add", err)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, board.NewView(task, s.now()))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	task, found := s.store.Task(id)
	if !found {
		respondError(w, http.StatusNotFound, "task_not_found", fmt.Sprintf("task %d not found", id))
		return
	}
	respondJSON(w, http.StatusOK, board.NewView(task, s.now()))
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	status, err := board.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	err = s.store.SetStatus(r.Context(), id, status)
	s.metrics.ObserveMutation("set_status", err)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	err := s.store.Delete(r.Context(), id)
	s.metrics.ObserveMutation("delete", err)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}
	data, err := export.Export(s.store.Tasks(), format, s.now())
	if err != nil {
		if errors.Is(err, export.ErrUnknownFormat) {
			respondError(w, http.StatusBadRequest, "invalid_format", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="board.%s"`, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrMissingField):
		respondError(w, http.StatusBadRequest, "missing_field", err.Error())
	case errors.Is(err, board.ErrInvalidDueDate):
		respondError(w, http.StatusBadRequest, "invalid_due_date", err.Error())
	case errors.Is(err, board.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	default:
		s.logger.Error("storage write failed", "err", err)
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
	}
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_task_id", fmt.Sprintf("invalid task id %q", raw))
		return 0, false
	}
	return id, true
}
