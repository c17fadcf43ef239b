package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/masomo-parents/core/parent"
)

var nowFunc = time.Now // mockable

type (
	entry struct {
		sess      parent.Session
		expiresAt time.Time // zero: never
	}

	// Store keeps sessions in memory, for development & tests.
	Store struct {
		ttl   time.Duration
		t     map[string]entry
		mutex sync.RWMutex
	}
)

var _ parent.SessionStore = (*Store)(nil)

func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, t: make(map[string]entry)}
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// GetSession drops the parent's session once expired.
func (s *Store) GetSession(_ context.Context, parentID string) (parent.Session, error) {
	s.mutex.RLock()
	e, ok := s.t[parentID]
	s.mutex.RUnlock()
	if !ok {
		return parent.Session{}, parent.ErrSessionNotFound
	}

	if now := nowFunc(); e.expired(now) {
		s.mutex.Lock()
		if e, ok := s.t[parentID]; ok && e.expired(now) {
			delete(s.t, parentID)
		}
		s.mutex.Unlock()
		return parent.Session{}, parent.ErrSessionNotFound
	}
	return copySession(e.sess), nil
}

// SaveSession also sweeps the expired sessions of other parents.
func (s *Store) SaveSession(_ context.Context, sess parent.Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := nowFunc()
	for id, e := range s.t {
		if e.expired(now) {
			delete(s.t, id)
		}
	}

	e := entry{sess: copySession(sess)}
	if s.ttl > 0 {
		e.expiresAt = now.Add(s.ttl)
	}
	s.t[sess.ParentID] = e
	return nil
}

func (s *Store) DeleteSession(_ context.Context, parentID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.t, parentID)
	return nil
}

func copySession(sess parent.Session) parent.Session {
	sess.Children = append([]parent.Child(nil), sess.Children...)
	sess.GradesOverview = append([]parent.GradeOverview(nil), sess.GradesOverview...)
	return sess
}
