// Package server exposes the JSON store as the /api/todos/ REST resource.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
)

// Store is the persistence the handlers need.
type Store interface {
	List() ([]model.Todo, error)
	Get(id int64) (model.Todo, error)
	Create(req model.CreateRequest) (model.Todo, error)
	Update(req model.UpdateRequest) (model.Todo, error)
	Delete(id int64) error
}

type Handler struct {
	store  Store
	logger *log.Logger
}

func NewHandler(store Store, logger *log.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Router wires the routes. Paths keep their trailing slash. Every request is
// logged, including ones no route matches.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/todos/", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/todos/", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/todos/{id:[0-9]+}/", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/todos/{id:[0-9]+}/", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/api/todos/{id:[0-9]+}/", h.Delete).Methods(http.MethodDelete)
	return h.logRequests(r)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.List()
	if err != nil {
		h.fail(w, "list todos", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	t, err := h.store.Create(req)
	if err != nil {
		h.fail(w, "create todo", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.Get(id)
	if err != nil {
		h.fail(w, "get todo", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update takes a full representation. The id in the path wins over the body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.ID = id
	t, err := h.store.Update(req)
	if err != nil {
		h.fail(w, "update todo", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		h.fail(w, "delete todo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// fail maps store errors to status codes.
func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, jsonstore.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, jsonstore.ErrEmptyTitle):
		http.Error(w, "title is required", http.StatusBadRequest)
	default:
		h.logger.Error(what, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.code, "took", time.Since(start))
	})
}

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Serve runs srv on ln until ctx is done. It then stops accepting connections
// and returns only after in-flight requests have finished or ShutdownTimeout
// has passed.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
