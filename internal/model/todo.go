package model

// Todo is the domain model for a todo entry as served by /api/todos/.
// ID is assigned by the server and never changes for the life of the item.
type Todo struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// UpdateRequest is the PUT body for /api/todos/{id}/.
// It carries every field of Todo; callers override one field explicitly.
type UpdateRequest struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// CreateRequest is the POST body for /api/todos/.
type CreateRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Request returns an UpdateRequest holding the todo's current values.
func (t Todo) Request() UpdateRequest {
	return UpdateRequest{ID: t.ID, Title: t.Title, Completed: t.Completed}
}

// Toggled returns the update that flips Completed.
func (t Todo) Toggled() UpdateRequest {
	r := t.Request()
	r.Completed = !t.Completed
	return r
}

// Renamed returns the update that replaces Title.
func (t Todo) Renamed(title string) UpdateRequest {
	r := t.Request()
	r.Title = title
	return r
}

// Todo converts the request back to the domain value.
func (r UpdateRequest) Todo() Todo {
	return Todo{ID: r.ID, Title: r.Title, Completed: r.Completed}
}

// Stats counts done and pending items.
func Stats(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
