package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// API is the full client surface used by the list.
type API interface {
	TodoAPI
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, req model.CreateRequest) (model.Todo, error)
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeRename
)

type loadedMsg struct {
	todos []model.Todo
	err   error
}

type createdMsg struct {
	todo model.Todo
	err  error
}

// row adapts a todo to bubbles/list.Item
type row struct {
	todo model.Todo
}

func (r row) FilterValue() string { return r.todo.Title }

// delegate renders rows through their Item views (single line)
type delegate struct {
	views  map[int64]*Item
	styles *ui.Styles
}

func (d delegate) Height() int                               { return 1 }
func (d delegate) Spacing() int                              { return 0 }
func (d delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(row)
	if !ok {
		return
	}
	v, ok := d.views[r.todo.ID]
	if !ok {
		return
	}
	fmt.Fprint(w, v.View(*d.styles, index == m.Index()))
}

type keyMap struct {
	toggle, remove, add, edit, reload, quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// List owns the authoritative collection and one Item per todo.
// It is the only writer of the collection: rows change it by sending
// transforms, which arrive here as ApplyMsg.
type List struct {
	api    API
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	todos  []model.Todo
	views  map[int64]*Item
	styles *ui.Styles
	keys   keyMap

	list    list.Model
	spinner spinner.Model
	input   textinput.Model

	loading  bool
	status   string
	mode     mode
	renameID int64
	inputErr string
	width    int
	height   int
}

// NewList builds the list model. Nothing is fetched until Init runs.
func NewList(client API, logger *log.Logger) *List {
	if logger == nil {
		logger = logging.Discard()
	}
	styles := ui.TUIStyles()
	views := map[int64]*Item{}

	l := list.New(nil, delegate{views: views, styles: &styles}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = styles.Title
	l.Styles.HelpStyle = styles.Help
	l.Styles.PaginationStyle = styles.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	keys := newKeyMap()
	extra := func() []key.Binding {
		return []key.Binding{keys.toggle, keys.remove, keys.add, keys.edit, keys.reload}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Accent

	ctx, cancel := context.WithCancel(context.Background())
	m := &List{
		api:     client,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		views:   views,
		styles:  &styles,
		keys:    keys,
		list:    l,
		spinner: sp,
		input:   ti,
		loading: true,
	}
	m.resize(80, 24)
	m.list.Title = m.header()
	return m
}

// Todos returns a copy of the collection.
func (m *List) Todos() []model.Todo {
	return append([]model.Todo(nil), m.todos...)
}

// Item returns the mounted row for id.
func (m *List) Item(id int64) (*Item, bool) {
	v, ok := m.views[id]
	return v, ok
}

func (m *List) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *List) load() tea.Cmd {
	ctx, client := m.ctx, m.api
	return func() tea.Msg {
		todos, err := client.List(ctx)
		return loadedMsg{todos: todos, err: err}
	}
}

func (m *List) create(title string) tea.Cmd {
	ctx, client := m.ctx, m.api
	return func() tea.Msg {
		t, err := client.Create(ctx, model.CreateRequest{Title: title})
		return createdMsg{todo: t, err: err}
	}
}

func (m *List) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("error loading todos", "err", msg.err)
			m.status = "Could not load todos"
			return m, nil
		}
		m.status = ""
		return m, m.applyTransform(model.Set(msg.todos))

	case createdMsg:
		if msg.err != nil {
			m.logger.Error("error creating todo", "err", msg.err)
			return m, nil
		}
		return m, m.applyTransform(model.Append(msg.todo))

	case ApplyMsg:
		return m, m.applyTransform(msg.Transform)

	case settledMsg:
		v, ok := m.views[msg.id]
		if !ok {
			m.logger.Debug("dropping response for unmounted item", "op", msg.op, "id", msg.id)
			return m, nil
		}
		return m, v.Update(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *List) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// While the filter prompt is open every key belongs to it.
	if m.list.FilterState() == list.Filtering {
		return nil, false
	}
	switch {
	case msg.String() == "esc" && m.list.FilterState() == list.FilterApplied:
		return nil, false
	case key.Matches(msg, m.keys.quit):
		m.shutdown()
		return tea.Quit, true
	case key.Matches(msg, m.keys.toggle):
		if v, ok := m.selected(); ok {
			return v.Toggle(), true
		}
		return nil, true
	case key.Matches(msg, m.keys.remove):
		if v, ok := m.selected(); ok {
			return v.Delete(), true
		}
		return nil, true
	case key.Matches(msg, m.keys.add):
		m.mode = modeAdd
		m.inputErr = ""
		m.input.SetValue("")
		m.input.Placeholder = "New item title..."
		m.resize(m.width, m.height)
		return m.input.Focus(), true
	case key.Matches(msg, m.keys.edit):
		v, ok := m.selected()
		if !ok || v.Disabled() {
			return nil, true
		}
		m.mode = modeRename
		m.renameID = v.ID()
		m.inputErr = ""
		m.input.SetValue(v.Todo().Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit item title..."
		m.resize(m.width, m.height)
		return m.input.Focus(), true
	case key.Matches(msg, m.keys.reload):
		m.loading = true
		return tea.Batch(m.spinner.Tick, m.load()), true
	}
	return nil, false
}

func (m *List) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.inputErr = "Title cannot be empty"
			return m, nil
		}
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.create(title)
		} else if v, ok := m.views[m.renameID]; ok {
			cmd = v.Rename(title)
		}
		m.closeInput()
		return m, cmd
	case "esc":
		m.closeInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *List) closeInput() {
	m.mode = modeList
	m.inputErr = ""
	m.input.SetValue("")
	m.input.Blur()
	m.resize(m.width, m.height)
}

func (m *List) selected() (*Item, bool) {
	r, ok := m.list.SelectedItem().(row)
	if !ok {
		return nil, false
	}
	v, ok := m.views[r.todo.ID]
	return v, ok
}

// applyTransform replaces the collection and reconciles the mounted rows:
// new ids are mounted, vanished ids unmounted, the rest get the new value.
func (m *List) applyTransform(f model.Transform) tea.Cmd {
	m.todos = f(m.todos)

	seen := make(map[int64]bool, len(m.todos))
	rows := make([]list.Item, 0, len(m.todos))
	for _, t := range m.todos {
		seen[t.ID] = true
		if v, ok := m.views[t.ID]; ok {
			v.SetTodo(t)
		} else {
			m.views[t.ID] = NewItem(t, m.api, Apply, m.logger)
		}
		rows = append(rows, row{todo: t})
	}
	for id, v := range m.views {
		if !seen[id] {
			v.Unmount()
			delete(m.views, id)
		}
	}

	m.list.Title = m.header()
	return m.list.SetItems(rows)
}

func (m *List) shutdown() {
	for _, v := range m.views {
		v.Unmount()
	}
	m.cancel()
}

// header shows live counts
func (m *List) header() string {
	st := m.styles
	done, pending := model.Stats(m.todos)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		st.Title.Render("Todos"),
		st.Success.Render(ui.Current().SymDone), done,
		st.Pending.Render(ui.Current().SymPending), pending,
		st.Accent.Render("Total"), len(m.todos),
	)
}

func (m *List) resize(w, h int) {
	m.width, m.height = w, h
	listHeight := h - 4
	if m.mode != modeList {
		listHeight = h - 8
	}
	if listHeight < 1 {
		listHeight = 1
	}
	m.list.SetSize(w-4, listHeight)
}

func (m *List) View() string {
	var content string
	if m.loading && len(m.todos) == 0 {
		content = m.spinner.View() + " Loading todos..."
	} else {
		content = m.list.View()
	}
	if m.status != "" {
		content += "\n" + m.styles.Error.Render(m.status)
	}
	if m.mode != modeList {
		title := "Add new item"
		if m.mode == modeRename {
			title = "Edit item"
		}
		if m.inputErr != "" {
			title += ": " + m.styles.Error.Render(m.inputErr)
		}
		content += "\n" + m.styles.Border.Render(title+"\n"+m.input.View())
	}
	return m.styles.Border.Render(content)
}
