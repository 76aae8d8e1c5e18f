package draft

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"dersplan/internal/domain/wizard"
)

// Store holds one wizard per session. Drafts are not persisted across restarts.
type Store interface {
	Get(ctx context.Context, sessionID string) (*wizard.Wizard, bool)
	Put(ctx context.Context, sessionID string, w *wizard.Wizard)
	Discard(ctx context.Context, sessionID string)
}

// CacheStore implements Store with an expiring in-memory cache.
// Each Put refreshes the draft's time to live.
type CacheStore struct {
	cache *gocache.Cache
}

// NewCacheStore creates a CacheStore whose drafts expire after ttl of inactivity.
// PRE: ttl > 0
// POST: expired drafts are swept every ttl/2
func NewCacheStore(ttl time.Duration) *CacheStore {
	return &CacheStore{cache: gocache.New(ttl, ttl/2)}
}

// Get returns a copy of the session's wizard.
// INVARIANT: the stored wizard is never handed out directly
func (s *CacheStore) Get(_ context.Context, sessionID string) (*wizard.Wizard, bool) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*wizard.Wizard).Clone(), true
}

// Put stores a copy of w for the session.
// POST: the draft's expiry is reset
func (s *CacheStore) Put(_ context.Context, sessionID string, w *wizard.Wizard) {
	s.cache.Set(sessionID, w.Clone(), gocache.DefaultExpiration)
}

// Discard drops the session's wizard.
func (s *CacheStore) Discard(_ context.Context, sessionID string) {
	s.cache.Delete(sessionID)
}

// Len returns the number of live drafts.
func (s *CacheStore) Len() int {
	return s.cache.ItemCount()
}
