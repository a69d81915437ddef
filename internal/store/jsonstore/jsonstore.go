package jsonstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/Makepad-fr/tada/internal/model"
)

// JSON-backed storage for the todo server. Single file, human-readable, portable.
// The mutex serializes access within one process; writes go through a temp file
// and rename so a crash never leaves a half-written file behind.

// DefaultFileName is used when no data path is configured.
const DefaultFileName = "todos.json"

var (
	// ErrNotFound is returned for ids that are not in the store.
	ErrNotFound = errors.New("todo not found")
	// ErrEmptyTitle is returned when a todo would be stored without a title.
	ErrEmptyTitle = errors.New("empty title")
)

type document struct {
	NextID int64        `json:"next_id"`
	Todos  []model.Todo `json:"todos"`
}

// Store persists todos in a single JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a store backed by path. The file is created on first write.
func Open(path string) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// List returns all todos in insertion order.
func (s *Store) List() ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Todos, nil
}

// Get returns the todo with the given id.
func (s *Store) Get(id int64) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	i := model.Find(doc.Todos, id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return doc.Todos[i], nil
}

// Create stores a new todo and assigns it the next id.
func (s *Store) Create(req model.CreateRequest) (model.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Todo{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	t := model.Todo{ID: doc.NextID, Title: title, Completed: req.Completed}
	doc.NextID++
	doc.Todos = model.Append(t)(doc.Todos)
	if err := s.save(doc); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// Update overwrites the todo identified by req.ID with req's values.
func (s *Store) Update(req model.UpdateRequest) (model.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Todo{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	if model.Find(doc.Todos, req.ID) < 0 {
		return model.Todo{}, fmt.Errorf("update %d: %w", req.ID, ErrNotFound)
	}
	t := req.Todo()
	t.Title = title
	doc.Todos = model.Replace(t)(doc.Todos)
	if err := s.save(doc); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

// Delete removes the todo with the given id.
func (s *Store) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if model.Find(doc.Todos, id) < 0 {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}
	doc.Todos = model.Remove(id)(doc.Todos)
	return s.save(doc)
}

func (s *Store) load() (document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{NextID: 1, Todos: []model.Todo{}}, nil
		}
		return document{}, fmt.Errorf("read file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("json unmarshal: %w", err)
	}
	if doc.Todos == nil {
		doc.Todos = []model.Todo{}
	}
	// Files edited by hand may lack next_id; never hand out an id twice.
	for _, t := range doc.Todos {
		if t.ID >= doc.NextID {
			doc.NextID = t.ID + 1
		}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	return doc, nil
}

func (s *Store) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
