package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// DefaultContextTTL is how long an idle session keeps its context.
const DefaultContextTTL = 24 * time.Hour

// maxUpdateAttempts bounds optimistic-lock retries in external stores.
const maxUpdateAttempts = 5

var (
	// ErrEmptySession is returned for a blank session id.
	ErrEmptySession = errors.New("conversation: session id required")
	// ErrContextNotFound indicates no live context exists for the session.
	ErrContextNotFound = errors.New("conversation: context not found")
	// ErrVersionConflict is returned when concurrent turns kept winning the
	// optimistic lock.
	ErrVersionConflict = errors.New("conversation: context version conflict")
)

// ContextStore owns session contexts. Update runs fn against the session's
// current context (created on first use) and persists the result; calls for
// the same session are serialised, calls for different sessions are not.
// When fn returns an error nothing is persisted.
type ContextStore interface {
	Update(ctx context.Context, sessionID string, fn func(*Context) error) (*Context, error)
	Get(ctx context.Context, sessionID string) (*Context, error)
	Delete(ctx context.Context, sessionID string) error
}

func validSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrEmptySession
	}
	return nil
}

type memoryEntry struct {
	mu        sync.Mutex
	ctx       *Context
	refs      int
	expiresAt time.Time
}

// MemoryContextStore keeps contexts in process with a sliding TTL.
type MemoryContextStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// MemoryStoreOption customises a MemoryContextStore.
type MemoryStoreOption func(*MemoryContextStore)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryContextStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryContextStore starts a store whose janitor sweeps expired sessions
// every sweepEvery (ttl/4 when zero). Call Close to stop it.
func NewMemoryContextStore(ttl, sweepEvery time.Duration, opts ...MemoryStoreOption) *MemoryContextStore {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	if sweepEvery <= 0 {
		sweepEvery = ttl / 4
	}
	s := &MemoryContextStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor(sweepEvery)
	return s
}

func (s *MemoryContextStore) janitor(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

// evictExpired drops expired sessions that no turn is currently using.
func (s *MemoryContextStore) evictExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.entries {
		if e.refs == 0 && now.After(e.expiresAt) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// Close stops the janitor.
func (s *MemoryContextStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// Len reports the number of tracked sessions.
func (s *MemoryContextStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryContextStore) acquire(sessionID string) *memoryEntry {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok || (e.refs == 0 && now.After(e.expiresAt)) {
		e = &memoryEntry{ctx: newContext(sessionID)}
		s.entries[sessionID] = e
	}
	e.refs++
	return e
}

func (s *MemoryContextStore) release(e *memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	e.expiresAt = s.now().Add(s.ttl)
}

func (s *MemoryContextStore) Update(_ context.Context, sessionID string, fn func(*Context) error) (*Context, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	e := s.acquire(sessionID)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()
	working := e.ctx.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.Version = e.ctx.Version + 1
	working.UpdatedAt = s.now()
	e.ctx = working
	return working.Clone(), nil
}

func (s *MemoryContextStore) Get(_ context.Context, sessionID string) (*Context, error) {
	if err := validSession(sessionID); err != nil {
		return nil, err
	}
	now := s.now()
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	live := ok && (e.refs > 0 || !now.After(e.expiresAt))
	s.mu.Unlock()
	if !live {
		return nil, ErrContextNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.Clone(), nil
}

func (s *MemoryContextStore) Delete(_ context.Context, sessionID string) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
