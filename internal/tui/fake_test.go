package tui

import (
	"context"
	"errors"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

var (
	errTransport = errors.New("connection refused")
	errNotFound  = &api.StatusError{Method: http.MethodPut, Path: "/api/todos/1/", Code: http.StatusNotFound}
)

// fakeAPI records calls. By default Update echoes the request and Delete succeeds.
type fakeAPI struct {
	updates []model.UpdateRequest
	deletes []int64
	creates []model.CreateRequest
	lists   int

	updateResp *model.Todo
	updateErr  error
	deleteErr  error
	listResp   []model.Todo
	listErr    error
	createErr  error
	nextID     int64
}

func (f *fakeAPI) Update(ctx context.Context, req model.UpdateRequest) (model.Todo, error) {
	f.updates = append(f.updates, req)
	if err := ctx.Err(); err != nil {
		return model.Todo{}, err
	}
	if f.updateErr != nil {
		return model.Todo{}, f.updateErr
	}
	if f.updateResp != nil {
		return *f.updateResp, nil
	}
	return req.Todo(), nil
}

func (f *fakeAPI) Delete(ctx context.Context, id int64) error {
	f.deletes = append(f.deletes, id)
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.deleteErr
}

func (f *fakeAPI) List(ctx context.Context) ([]model.Todo, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Todo(nil), f.listResp...), nil
}

func (f *fakeAPI) Create(ctx context.Context, req model.CreateRequest) (model.Todo, error) {
	f.creates = append(f.creates, req)
	if f.createErr != nil {
		return model.Todo{}, f.createErr
	}
	f.nextID++
	return model.Todo{ID: 100 + f.nextID, Title: req.Title, Completed: req.Completed}, nil
}

// recorder is a Mutator that keeps every transform it is handed.
type recorder struct {
	transforms []model.Transform
}

func (r *recorder) apply(f model.Transform) tea.Cmd {
	r.transforms = append(r.transforms, f)
	return func() tea.Msg { return ApplyMsg{Transform: f} }
}

func (r *recorder) result(in []model.Todo) []model.Todo {
	for _, f := range r.transforms {
		in = f(in)
	}
	return in
}

// exec runs cmd and returns its message, or nil for a nil cmd.
func exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
