package service

import (
	"sync"
	"sync/atomic"

	"github.com/justinloleng/ecommerce/internal/domain"
)

// userState is the in-process part of a shopper's cart state.
//
// Every cart fetch takes a token from a per-user sequence when it starts. A
// response is applied only if its token is newer than the last applied one,
// so a slow response can never overwrite a fresher snapshot.
type userState struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	latest  *domain.CartSnapshot

	// selMu serializes read-modify-write cycles on the stored selection.
	selMu sync.Mutex

	// persistMu orders snapshot writes to the session store.
	persistMu sync.Mutex

	mutating atomic.Bool
}

func (s *userState) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// superseded reports whether a snapshot newer than token has been applied.
func (s *userState) superseded(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied > token
}

func (s *userState) snapshot() *domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

type stateTable struct {
	mu    sync.Mutex
	users map[int64]*userState
}

func newStateTable() *stateTable {
	return &stateTable{users: make(map[int64]*userState)}
}

// claim returns the user's state with its mutation slot taken. ok is false
// when another mutation is outstanding.
func (t *stateTable) claim(userID int64) (st *userState, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st = t.lookupLocked(userID)
	return st, st.mutating.CompareAndSwap(false, true)
}

// discard forgets the user's state unless a mutation holds it.
func (t *stateTable) discard(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.users[userID]
	if !ok {
		return true
	}
	if st.mutating.Load() {
		return false
	}
	delete(t.users, userID)
	return true
}

func (t *stateTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.users)
}

func (t *stateTable) get(userID int64) *userState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookupLocked(userID)
}

func (t *stateTable) lookupLocked(userID int64) *userState {
	st, ok := t.users[userID]
	if !ok {
		st = &userState{}
		t.users[userID] = st
	}
	return st
}
