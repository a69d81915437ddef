package model

// Transform is a pure function over the owning collection.
// Implementations return a new slice and leave their input untouched.
type Transform func([]Todo) []Todo

// Replace swaps every entry whose ID matches t.ID for t.
// Other entries keep their values and order.
func Replace(t Todo) Transform {
	return func(in []Todo) []Todo {
		out := make([]Todo, len(in))
		for i, cur := range in {
			if cur.ID == t.ID {
				out[i] = t
				continue
			}
			out[i] = cur
		}
		return out
	}
}

// Remove drops entries with the given ID, preserving the relative order of the rest.
func Remove(id int64) Transform {
	return func(in []Todo) []Todo {
		out := make([]Todo, 0, len(in))
		for _, cur := range in {
			if cur.ID != id {
				out = append(out, cur)
			}
		}
		return out
	}
}

// Append adds t at the end of the collection.
func Append(t Todo) Transform {
	return func(in []Todo) []Todo {
		out := make([]Todo, 0, len(in)+1)
		out = append(out, in...)
		return append(out, t)
	}
}

// Set discards the current collection in favor of todos.
func Set(todos []Todo) Transform {
	return func([]Todo) []Todo {
		out := make([]Todo, len(todos))
		copy(out, todos)
		return out
	}
}

// Find returns the position of id in todos, or -1.
func Find(todos []Todo, id int64) int {
	for i, t := range todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
