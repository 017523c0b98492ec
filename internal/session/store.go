package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var ErrNotFound = errors.New("session not found")

// Store keeps session state for the lifetime of a session only.
type Store interface {
	Create(ctx context.Context) (*State, error)
	Get(ctx context.Context, id string) (*State, error)
	// Update runs fn against the session and saves the result when fn returns
	// nil. Calls for the same session are serialised, so each turn sees every
	// earlier turn's effects.
	Update(ctx context.Context, id string, fn func(*State) error) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Idle sessions expire after
// the TTL; every update slides the expiry forward.
type MemoryStore struct {
	cache *cache.Cache
	locks *turnLocks
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &MemoryStore{
		cache: cache.New(ttl, 10*time.Minute),
		locks: newTurnLocks(),
	}
}

func (s *MemoryStore) Create(_ context.Context) (*State, error) {
	state := NewState(uuid.NewString())
	s.cache.Set(state.ID, state, cache.DefaultExpiration)
	return state.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	state, ok := s.load(id)
	if !ok {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*State) error) error {
	unlock := s.locks.lock(id)
	defer unlock()

	state, ok := s.load(id)
	if !ok {
		return ErrNotFound
	}
	working := state.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.cache.Set(id, working, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, ok := s.load(id); !ok {
		return ErrNotFound
	}
	s.cache.Delete(id)
	return nil
}

func (s *MemoryStore) load(id string) (*State, bool) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	return x.(*State), true
}

// turnLocks hands out one mutex per session id and forgets it once nobody
// holds or waits for it.
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	sync.Mutex
	refs int
}

func newTurnLocks() *turnLocks {
	return &turnLocks{locks: make(map[string]*turnLock)}
}

func (l *turnLocks) lock(id string) func() {
	l.mu.Lock()
	tl, ok := l.locks[id]
	if !ok {
		tl = &turnLock{}
		l.locks[id] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.Lock()
	return func() {
		tl.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
