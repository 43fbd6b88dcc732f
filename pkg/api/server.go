// Package api exposes a board over HTTP for a browser front end.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/harrisonrobin/whattodo/pkg/board"
	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/overdue"
	"github.com/harrisonrobin/whattodo/pkg/schedule"
	"github.com/harrisonrobin/whattodo/pkg/store"
)

const maxBodyBytes = 1 << 20

// TaskView is a task as the list renders it.
type TaskView struct {
	model.Task
	Overdue         bool           `json:"overdue"`
	Status          overdue.Status `json:"status"`
	ImportanceLabel string         `json:"importanceLabel"`
}

// ListResponse is the body of the list endpoints. Strategy is empty in insertion order.
type ListResponse struct {
	Strategy string     `json:"strategy"`
	Tasks    []TaskView `json:"tasks"`
}

type completedRequest struct {
	Completed *bool `json:"completed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	board *board.Board
}

func NewServer(b *board.Board) *Server {
	return &Server{board: b}
}

// Router registers the task, strategy and schedule routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}/completed", s.setCompleted).Methods(http.MethodPut)
	r.HandleFunc("/strategies", s.listStrategies).Methods(http.MethodGet)
	r.HandleFunc("/schedule/{strategy}", s.selectStrategy).Methods(http.MethodPost)
	r.HandleFunc("/schedule", s.resetSchedule).Methods(http.MethodDelete)
	return r
}

// Handler wraps the router with CORS and an Apache combined access log written to accessLog.
func (s *Server) Handler(allowedOrigins []string, accessLog io.Writer) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedOrigins(allowedOrigins),
	)
	return handlers.CombinedLoggingHandler(accessLog, cors(s.Router()))
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	showCompleted, _ := strconv.ParseBool(q.Get("all"))
	now := s.board.Now()

	name := q.Get("strategy")
	if name == "" {
		writeJSON(w, http.StatusOK, s.currentList(showCompleted))
		return
	}

	k, err := schedule.ParseKind(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.board.IncompleteCount() == 0 {
		writeError(w, http.StatusConflict, board.ErrNothingToSchedule)
		return
	}
	tasks := schedule.Arrange(k, s.board.Tasks(), now)
	if !showCompleted {
		tasks, _ = model.Partition(tasks)
	}
	writeJSON(w, http.StatusOK, ListResponse{Strategy: k.String(), Tasks: views(tasks, now)})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	draft := model.NewDraft(s.board.Now())
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid task: %w", err))
		return
	}

	task, err := s.board.Add(r.Context(), draft)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	logger.Debug("created task %s", task.ID)
	writeJSON(w, http.StatusCreated, views([]model.Task{task}, s.board.Now())[0])
}

func (s *Server) setCompleted(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req completedRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Completed == nil {
		writeError(w, http.StatusBadRequest, errors.New(`body must be {"completed": true|false}`))
		return
	}

	if err := s.board.SetCompleted(r.Context(), id, *req.Completed); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schedule.Catalog())
}

func (s *Server) selectStrategy(w http.ResponseWriter, r *http.Request) {
	k, err := schedule.ParseKind(mux.Vars(r)["strategy"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if _, err := s.board.Select(k); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	showCompleted, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	writeJSON(w, http.StatusOK, s.currentList(showCompleted))
}

func (s *Server) resetSchedule(w http.ResponseWriter, r *http.Request) {
	s.board.Reset()
	showCompleted, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	writeJSON(w, http.StatusOK, s.currentList(showCompleted))
}

func (s *Server) currentList(showCompleted bool) ListResponse {
	resp := ListResponse{Tasks: views(s.board.Display(showCompleted), s.board.Now())}
	if k, ok := s.board.Selected(); ok {
		resp.Strategy = k.String()
	}
	return resp
}

func views(tasks []model.Task, now time.Time) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskView{
			Task:            t,
			Overdue:         t.Overdue(now),
			Status:          overdue.Classify(t.Deadline, now),
			ImportanceLabel: model.ImportanceLabel(t.Importance),
		})
	}
	return out
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrEmptyTitle),
		errors.Is(err, model.ErrInvalidDuration),
		errors.Is(err, model.ErrInvalidImportance),
		errors.Is(err, model.ErrDeadlinePassed):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrNothingToSchedule), errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(err, "failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error(err, "request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
