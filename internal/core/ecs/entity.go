package ecs

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. The generation increments every time the slot is
// recycled, so a handle kept past its release no longer matches.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }

// IsZero reports whether id is the zero handle. Generations start at 1, so
// no live entity ever has the zero ID.
func (id EntityID) IsZero() bool { return id == 0 }

// Slots hands out dense indices and tracks one generation per index.
// Index reuse policy is left to the owner (see pool.Pool free lists).
type Slots struct {
	generations []uint32
}

func NewSlots(capacity int) *Slots {
	return &Slots{generations: make([]uint32, 0, capacity)}
}

// Grow allocates a fresh index and returns its first handle.
func (s *Slots) Grow() EntityID {
	idx := uint32(len(s.generations))
	s.generations = append(s.generations, 1)
	return NewEntityID(idx, 1)
}

// Current returns the live handle for index.
func (s *Slots) Current(index uint32) EntityID {
	return NewEntityID(index, s.generations[index])
}

// Alive reports whether id still names the current generation of its slot.
func (s *Slots) Alive(id EntityID) bool {
	idx := id.Index()
	if int(idx) >= len(s.generations) {
		return false
	}
	return s.generations[idx] == id.Generation()
}

// Recycle invalidates id and returns the handle the slot will carry next.
// Stale ids are rejected.
func (s *Slots) Recycle(id EntityID) (EntityID, bool) {
	if !s.Alive(id) {
		return 0, false
	}
	idx := id.Index()
	s.generations[idx]++
	if s.generations[idx] == 0 {
		s.generations[idx] = 1
	}
	return NewEntityID(idx, s.generations[idx]), true
}

func (s *Slots) Len() int { return len(s.generations) }
