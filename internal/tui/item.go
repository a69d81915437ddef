package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// TodoAPI is what a single row needs from the server.
type TodoAPI interface {
	Update(ctx context.Context, req model.UpdateRequest) (model.Todo, error)
	Delete(ctx context.Context, id int64) error
}

// Mutator hands a transform to whoever owns the collection.
type Mutator func(model.Transform) tea.Cmd

// ApplyMsg asks the collection owner to apply Transform.
type ApplyMsg struct {
	Transform model.Transform
}

// Apply is the default Mutator: the transform travels back to the owner as an ApplyMsg.
func Apply(f model.Transform) tea.Cmd {
	return func() tea.Msg { return ApplyMsg{Transform: f} }
}

type op int

const (
	opToggle op = iota
	opRename
	opDelete
)

func (o op) String() string {
	switch o {
	case opToggle:
		return "toggle"
	case opRename:
		return "rename"
	default:
		return "delete"
	}
}

// settledMsg is the outcome of one request issued by an Item.
type settledMsg struct {
	mount string
	id    int64
	op    op
	todo  model.Todo // server representation, update ops only
	err   error
}

// Item renders one todo and forwards toggle, rename and delete to the API.
//
// At most one request is outstanding per item: while busy, Toggle, Rename and
// Delete return nil and touch nothing. Every settlement clears busy, whatever
// the outcome. Only a successful response changes the collection, and only
// through the Mutator.
type Item struct {
	todo   model.Todo
	api    TodoAPI
	apply  Mutator
	logger *log.Logger

	// mount identifies this instance; responses addressed to an older mount are dropped.
	mount  string
	ctx    context.Context
	cancel context.CancelFunc
	busy   bool
}

// NewItem mounts a view for todo.
func NewItem(todo model.Todo, client TodoAPI, apply Mutator, logger *log.Logger) *Item {
	if apply == nil {
		apply = Apply
	}
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Item{
		todo:   todo,
		api:    client,
		apply:  apply,
		logger: logger,
		mount:  uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (it *Item) Todo() model.Todo { return it.todo }
func (it *Item) ID() int64        { return it.todo.ID }
func (it *Item) Busy() bool       { return it.busy }

// Checked is the checkbox state. It always mirrors the upstream todo.
func (it *Item) Checked() bool { return it.todo.Completed }

// Disabled reports whether both controls are inert.
func (it *Item) Disabled() bool { return it.busy }

// Mounted is false once Unmount has been called.
func (it *Item) Mounted() bool { return it.ctx.Err() == nil }

// SetTodo takes a new upstream value for the same id.
func (it *Item) SetTodo(t model.Todo) {
	if t.ID == it.todo.ID {
		it.todo = t
	}
}

// Unmount cancels any request still in flight.
func (it *Item) Unmount() { it.cancel() }

// Toggle sends the todo back with Completed inverted.
func (it *Item) Toggle() tea.Cmd {
	return it.update(opToggle, it.todo.Toggled())
}

// Rename sends the todo back with a new title. Blank or unchanged titles are ignored.
func (it *Item) Rename(title string) tea.Cmd {
	title = strings.TrimSpace(title)
	if title == "" || title == it.todo.Title {
		return nil
	}
	return it.update(opRename, it.todo.Renamed(title))
}

func (it *Item) update(o op, req model.UpdateRequest) tea.Cmd {
	if !it.begin() {
		return nil
	}
	ctx, client, mount := it.ctx, it.api, it.mount
	return func() tea.Msg {
		t, err := client.Update(ctx, req)
		return settledMsg{mount: mount, id: req.ID, op: o, todo: t, err: err}
	}
}

// Delete removes the todo on the server.
func (it *Item) Delete() tea.Cmd {
	if !it.begin() {
		return nil
	}
	ctx, client, mount, id := it.ctx, it.api, it.mount, it.todo.ID
	return func() tea.Msg {
		err := client.Delete(ctx, id)
		return settledMsg{mount: mount, id: id, op: opDelete, err: err}
	}
}

func (it *Item) begin() bool {
	if it.busy || !it.Mounted() {
		return false
	}
	it.busy = true
	return true
}

// Update settles a finished request and returns the collection mutation, if any.
func (it *Item) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(settledMsg)
	if !ok || m.mount != it.mount {
		return nil
	}
	it.busy = false

	if m.err != nil {
		it.report(m)
		return nil
	}
	if !it.Mounted() {
		return nil
	}
	if m.op == opDelete {
		return it.apply(model.Remove(m.id))
	}
	return it.apply(model.Replace(m.todo))
}

func (it *Item) report(m settledMsg) {
	switch {
	case api.IsStatus(m.err):
		it.logger.Debug("request rejected", "op", m.op, "id", m.id, "err", m.err)
	case errors.Is(m.err, context.Canceled):
		it.logger.Debug("request cancelled", "op", m.op, "id", m.id)
	default:
		it.logger.Error(fmt.Sprintf("error during %s", m.op), "id", m.id, "err", m.err)
	}
}

// View renders the row: checkbox, label, delete control.
func (it *Item) View(st ui.Styles, selected bool) string {
	theme := ui.Current()

	box, boxStyle := theme.BoxUnchecked, st.Muted
	if it.Checked() {
		box, boxStyle = theme.BoxChecked, st.Success
	}
	label := lipgloss.NewStyle()
	if it.todo.Completed {
		label = st.Done
	}
	del := st.Error
	if it.busy {
		boxStyle, del = st.Busy, st.Busy
		label = label.Faint(true)
	}

	line := fmt.Sprintf("%s %s  %s",
		boxStyle.Render(box),
		label.Render(it.todo.Title),
		del.Render(theme.SymDelete))

	prefix := "  "
	if selected {
		prefix = st.Selected.Render("> ")
	}
	return prefix + line
}
