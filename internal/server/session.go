package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/woozymasta/antipode/internal/metrics"
	"github.com/woozymasta/antipode/internal/view"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// SessionCookie carries the session id. The theme is stored under this id,
	// so the cookie outlives the in-memory view state.
	SessionCookie = "antipode_session"

	// DefaultSessionTTL drops view state of idle pages.
	DefaultSessionTTL = 30 * time.Minute

	cookieMaxAge = 365 * 24 * 60 * 60
)

// ControllerFactory builds the controller of a new session.
type ControllerFactory func(ctx context.Context, id string, display view.Display) *view.Controller

// session serializes all events of one page, like a browser UI thread.
type session struct {
	ctrl     *view.Controller
	lastSeen time.Time
	renders  int
	mu       sync.Mutex
}

// Render implements view.Display by counting redraws.
func (s *session) Render(view.Frame) {
	s.renders++
}

// Sessions maps cookie ids to controllers.
type Sessions struct {
	items   map[string]*session
	factory ControllerFactory
	now     func() time.Time
	ttl     time.Duration
	mu      sync.Mutex
}

// NewSessions creates an empty registry.
func NewSessions(ttl time.Duration, factory ControllerFactory) *Sessions {
	return &Sessions{
		items:   make(map[string]*session),
		factory: factory,
		now:     time.Now,
		ttl:     ttl,
	}
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// acquire returns the session of the request, creating it and setting the
// cookie when needed. The returned session is locked.
func (s *Sessions) acquire(w http.ResponseWriter, r *http.Request) *session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.mu.Lock()
	sess, ok := s.items[id]
	if !ok {
		sess = &session{}
		s.items[id] = sess
		metrics.Sessions.Set(float64(len(s.items)))
	}
	sess.lastSeen = s.now()
	s.mu.Unlock()

	sess.mu.Lock()
	if sess.ctrl == nil {
		sess.ctrl = s.factory(r.Context(), id, sess)
		log.Debug().Str("session", id).Msg("Session created")
	}

	return sess
}

// SetTTL changes the idle timeout. Non-positive values keep the default.
func (s *Sessions) SetTTL(d time.Duration) {
	if d <= 0 {
		d = DefaultSessionTTL
	}
	s.mu.Lock()
	s.ttl = d
	s.mu.Unlock()
}

// Sweep removes sessions idle for longer than the TTL.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) {
			delete(s.items, id)
			removed++
		}
	}
	metrics.Sessions.Set(float64(len(s.items)))

	return removed
}

// Run sweeps idle sessions until ctx is done.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Int("live", s.Len()).Msg("Idle sessions swept")
			}
		}
	}
}
