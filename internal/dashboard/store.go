package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Store keeps live sessions in memory with a sliding TTL.
type Store struct {
	cache   *gocache.Cache
	ttl     time.Duration
	deps    Deps
	log     *zap.Logger
	metrics *metrics.Registry
}

// NewStore creates a session store. Expired sessions are swept every ttl/2.
func NewStore(ttl time.Duration, deps Deps, log *zap.Logger, reg *metrics.Registry) *Store {
	log = logger.OrNop(log).Named("sessions")
	if deps.Log == nil {
		deps.Log = log
	}
	s := &Store{
		cache:   gocache.New(ttl, ttl/2),
		ttl:     ttl,
		deps:    deps,
		log:     log,
		metrics: reg,
	}
	s.cache.OnEvicted(func(id string, _ any) {
		s.log.Debug("session expired", zap.String("session_id", id))
		s.metrics.SetSessionsActive(s.cache.ItemCount())
	})
	return s
}

// Create builds and mounts a new session.
func (s *Store) Create(ctx context.Context) *Session {
	sess := NewSession(uuid.NewString(), s.deps)
	sess.Mount(ctx)

	s.cache.SetDefault(sess.ID, sess)
	s.metrics.SetSessionsActive(s.cache.ItemCount())
	s.log.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

// Get returns a live session and extends its lifetime.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	sess := v.(*Session)
	s.cache.SetDefault(id, sess)
	return sess, nil
}

// GetOrCreate returns the session for id, creating one when it is unknown or expired.
// The bool reports whether a new session was created.
func (s *Store) GetOrCreate(ctx context.Context, id string) (*Session, bool) {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess, false
		}
	}
	return s.Create(ctx), true
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

// TTL is the idle lifetime of a session.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
