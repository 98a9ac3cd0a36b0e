// Package realtime provides an in-process publish/subscribe hub that fans
// engine state snapshots out to the listeners of a console session (for
// example the WebSocket connections of every browser tab sharing the same
// session cookie).
//
// Delivery is best effort: a listener whose buffer is full drops the event.
// Snapshots are complete, so a dropped event is repaired by the next one and
// slow listeners never hold up the engine that publishes.
package realtime

import (
	"sync"
	"sync/atomic"
)

// Event types.
const (
	TypeInit  = "init"
	TypeState = "state"
)

// StateEvent is the envelope pushed to listeners. State is the serialized
// engine snapshot; the hub never inspects it.
type StateEvent struct {
	Type     string `json:"type"`
	Session  string `json:"session"`
	Sequence uint64 `json:"seq"`
	State    any    `json:"state"`
}

type listener struct {
	session string
	ch      chan StateEvent
}

// StateHub dispatches state events to listeners grouped by session id.
// The hub is concurrency-safe.
type StateHub struct {
	mu        sync.RWMutex
	listeners map[uint64]listener
	nextID    uint64
	bufSize   int
	seq       atomic.Uint64
}

// NewStateHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 16 is used.
func NewStateHub(bufSize int) *StateHub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &StateHub{
		listeners: make(map[uint64]listener),
		bufSize:   bufSize,
	}
}

// Register adds a listener for session and returns its id and channel.
// Callers must Unregister(id) when done.
func (h *StateHub) Register(session string) (uint64, <-chan StateEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan StateEvent, h.bufSize)
	h.listeners[id] = listener{session: session, ch: ch}
	return id, ch
}

// Unregister removes a listener and closes its channel. Unknown ids are
// ignored.
func (h *StateHub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(l.ch)
	}
}

// CloseSession unregisters every listener of session. Their channels are
// closed, which ends the WebSocket pumps reading them.
func (h *StateHub) CloseSession(session string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, l := range h.listeners {
		if l.session == session {
			delete(h.listeners, id)
			close(l.ch)
		}
	}
}

// Publish delivers state to every listener of session and returns the
// number of listeners that accepted it.
func (h *StateHub) Publish(session string, state any) int {
	ev := StateEvent{
		Type:     TypeState,
		Session:  session,
		Sequence: h.seq.Add(1),
		State:    state,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, l := range h.listeners {
		if l.session != session {
			continue
		}
		select {
		case l.ch <- ev:
			delivered++
		default:
			// Drop for slow listener.
		}
	}
	return delivered
}

// Size returns the number of registered listeners across all sessions.
func (h *StateHub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// SessionSize returns the number of listeners registered for session.
func (h *StateHub) SessionSize(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, l := range h.listeners {
		if l.session == session {
			n++
		}
	}
	return n
}
