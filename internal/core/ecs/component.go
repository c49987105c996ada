package ecs

// Attached holds optional per-entity data that lives outside the pool arena,
// such as visual trails. Entries are keyed by the full handle, so data left
// behind by a stale generation is never returned for a reused slot.
type Attached[T any] struct {
	data map[EntityID]*T
}

func NewAttached[T any](capacity int) *Attached[T] {
	return &Attached[T]{data: make(map[EntityID]*T, capacity)}
}

// Put attaches v to id, replacing any previous value.
func (a *Attached[T]) Put(id EntityID, v *T) { a.data[id] = v }

func (a *Attached[T]) Get(id EntityID) (*T, bool) {
	v, ok := a.data[id]
	return v, ok
}

// Delete detaches the value for id and reports whether one was present.
func (a *Attached[T]) Delete(id EntityID) bool {
	if _, ok := a.data[id]; !ok {
		return false
	}
	delete(a.data, id)
	return true
}

func (a *Attached[T]) Len() int { return len(a.data) }
