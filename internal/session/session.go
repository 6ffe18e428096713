package session

import (
	"context"
	"sync"
	"time"

	"github.com/dmorgan81/promptbot/internal/controller"
	"github.com/dmorgan81/promptbot/internal/image"
	"github.com/dmorgan81/promptbot/internal/log"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const CookieName = "promptbot_session"

type entry struct {
	controller *controller.Controller
	seen       time.Time
}

// Store keeps one controller per browser session. Sessions idle for longer
// than the TTL are dropped by a sweep that runs at most once per TTL/10,
// unless they are generating.
type Store struct {
	generator image.Generator
	ttl       time.Duration
	now       func() time.Time

	mu        sync.Mutex
	sessions  map[string]*entry
	lastSweep time.Time
}

func New(generator image.Generator, ttl time.Duration) *Store {
	return &Store{
		generator: generator,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*entry),
	}
}

func NewStore(i *do.Injector) (*Store, error) {
	return New(
		do.MustInvoke[image.Generator](i),
		do.MustInvokeNamed[time.Duration](i, "session_ttl"),
	), nil
}

// Get returns the controller for id, creating a session with a fresh id
// when id is unknown. The returned id is the one to hand back to the client.
func (s *Store) Get(ctx context.Context, id string) (string, *controller.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(ctx, now)

	if e, ok := s.sessions[id]; ok {
		e.seen = now
		return id, e.controller
	}

	id = uuid.NewString()
	e := &entry{controller: controller.New(s.generator), seen: now}
	s.sessions[id] = e
	log.FromContextOrDiscard(ctx).WithGroup("session").Debug("created session", "id", id)
	return id, e.controller
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) evict(ctx context.Context, now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl/10 {
		return
	}
	s.lastSweep = now

	stale := lo.PickBy(s.sessions, func(_ string, e *entry) bool {
		return now.Sub(e.seen) > s.ttl && !e.controller.State().Generating
	})
	for id := range stale {
		delete(s.sessions, id)
	}
	if len(stale) > 0 {
		log.FromContextOrDiscard(ctx).WithGroup("session").Debug("evicted idle sessions", "count", len(stale))
	}
}
