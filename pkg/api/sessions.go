package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/regsearch/pkg/engine"
	"github.com/rubiojr/regsearch/pkg/realtime"
)

// SessionCookie carries the console session id.
const SessionCookie = "regsearch_session"

// EngineFactory creates the engine of a new session. onChange must be
// installed as the engine's OnChange hook.
type EngineFactory func(onChange func(engine.State)) *engine.Engine

// Session is one console user: an engine plus the listeners watching it.
type Session struct {
	ID     string
	Engine *engine.Engine

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Payload is the full view of a session pushed to clients and returned by
// the JSON endpoints.
func (s *Session) Payload(st engine.State) StateResponse {
	return StateResponse{
		Session:       s.ID,
		State:         st,
		View:          s.Engine.Render(st),
		ResultsWindow: st.ResultsWindow(),
	}
}

// SessionStore maps session cookies to engines and evicts idle sessions.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  EngineFactory
	hub      *realtime.StateHub
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store. A ttl <= 0 disables eviction.
func NewSessionStore(factory EngineFactory, hub *realtime.StateHub, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		factory:  factory,
		hub:      hub,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetFactory replaces the factory used for sessions created from now on.
// Existing sessions keep their engines.
func (st *SessionStore) SetFactory(factory EngineFactory) {
	st.mu.Lock()
	st.factory = factory
	st.mu.Unlock()
}

// Lookup returns the session named by the request's cookie, or by its
// "session" query parameter, without creating one.
func (st *SessionStore) Lookup(r *http.Request) (*Session, bool) {
	id := r.URL.Query().Get("session")
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		id = c.Value
	}
	if id == "" {
		return nil, false
	}

	st.mu.Lock()
	sess, ok := st.sessions[id]
	st.mu.Unlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// Get returns the request's session, creating it and setting the cookie
// when the request has none.
func (st *SessionStore) Get(w http.ResponseWriter, r *http.Request) *Session {
	if sess, ok := st.Lookup(r); ok {
		return sess
	}

	sess := st.create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (st *SessionStore) create() *Session {
	sess := &Session{ID: uuid.NewString(), lastSeen: st.now()}

	st.mu.Lock()
	factory := st.factory
	st.mu.Unlock()

	sess.Engine = factory(func(state engine.State) {
		st.hub.Publish(sess.ID, sess.Payload(state))
	})

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	logger.Debugf("session %s created", sess.ID)
	return sess
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle for longer than the ttl and returns how many
// were evicted. Evicted engines are closed and their listeners
// disconnected.
func (st *SessionStore) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	var expired []*Session
	st.mu.Lock()
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		sess.Engine.Close()
		st.hub.CloseSession(sess.ID)
		logger.Debugf("session %s expired", sess.ID)
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done, then closes every
// remaining session.
func (st *SessionStore) Run(ctx context.Context) error {
	interval := st.ttl / 4
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			return nil
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				logger.Infof("evicted %d idle sessions", n)
			}
		}
	}
}

func (st *SessionStore) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.Engine.Close()
		st.hub.CloseSession(sess.ID)
	}
}
