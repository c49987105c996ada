package console

// SessionStore holds the sessions known to the game loop.
// Accessed only from the game loop goroutine.
type SessionStore struct {
	sessions map[uint64]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uint64]*Session)}
}

func (st *SessionStore) Add(s *Session) { st.sessions[s.ID] = s }

func (st *SessionStore) Remove(id uint64) { delete(st.sessions, id) }

func (st *SessionStore) Get(id uint64) *Session { return st.sessions[id] }

func (st *SessionStore) Count() int { return len(st.sessions) }

// Raw exposes the map for iteration with removal.
func (st *SessionStore) Raw() map[uint64]*Session { return st.sessions }

func (st *SessionStore) ForEach(fn func(*Session)) {
	for _, s := range st.sessions {
		fn(s)
	}
}
