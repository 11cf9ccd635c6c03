package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ledger"
)

// SessionStore keeps working copies in an LRU with an idle TTL. A session
// that was evicted is rebuilt from the persisted document, so unsaved edits
// are lost exactly as if the user had reloaded.
type SessionStore struct {
	docs    ledger.DocumentStore
	live    *cache.LRUCache[*Session]
	revoked *cache.LRUCache[struct{}]
	group   singleflight.Group
	now     func() time.Time
}

// SessionOption configures a SessionStore.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	now     func() time.Time
	onEvict func(id string, s *Session)
}

// WithSessionClock overrides time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(o *sessionOptions) { o.now = now }
}

// WithEvictHook is called for every session dropped by size or idle time.
func WithEvictHook(fn func(id string, s *Session)) SessionOption {
	return func(o *sessionOptions) { o.onEvict = fn }
}

func NewSessionStore(docs ledger.DocumentStore, size int, ttl time.Duration, opts ...SessionOption) *SessionStore {
	o := sessionOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	liveOpts := []cache.Option[*Session]{
		cache.WithSlidingExpiration[*Session](),
		cache.WithClock[*Session](o.now),
	}
	if o.onEvict != nil {
		liveOpts = append(liveOpts, cache.WithEvictCallback(o.onEvict))
	}
	return &SessionStore{
		docs:    docs,
		live:    cache.NewLRUCache(size, ttl, liveOpts...),
		revoked: cache.NewLRUCache(size, ttl, cache.WithClock[struct{}](o.now)),
		now:     o.now,
	}
}

// Create loads the user's document into a new session.
func (st *SessionStore) Create(ctx context.Context, id, username string) (*Session, error) {
	doc, err := st.docs.Load(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	s := newSession(id, username, doc, st.now())
	st.live.Set(id, s)
	return s, nil
}

// Get returns the live session, rebuilding it when it was evicted.
// Concurrent rebuilds of the same session share one document load.
func (st *SessionStore) Get(ctx context.Context, id, username string) (*Session, error) {
	if _, gone := st.revoked.Get(id); gone {
		return nil, core.ErrSessionExpired
	}
	if s, ok := st.live.Get(id); ok {
		if s.Username != username {
			return nil, core.ErrSessionExpired
		}
		return s, nil
	}

	v, err, _ := st.group.Do(id, func() (any, error) {
		if s, ok := st.live.Get(id); ok {
			return s, nil
		}
		return st.Create(ctx, id, username)
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Session)
	if s.Username != username {
		return nil, core.ErrSessionExpired
	}
	return s, nil
}

// Drop ends a session; later lookups of id fail until the token expires.
func (st *SessionStore) Drop(id string) {
	st.live.Delete(id)
	st.revoked.Set(id, struct{}{})
}

// Len is the number of live sessions.
func (st *SessionStore) Len() int { return st.live.Size() }

// Stats reports cache counters for the live sessions.
func (st *SessionStore) Stats() cache.Stats { return st.live.Stats() }

// Cleaners exposes both caches to a cache.Manager.
func (st *SessionStore) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{st.live, st.revoked}
}
