package realtime

import (
	"sync"

	"task-manager/logging"
)

// Event is the payload pushed to connected clients when something they watch
// changes. It mirrors the persisted notification, but delivery here is
// best-effort: the notification collection is the durable record.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Session is one live client connection. *websocket.Conn satisfies it.
type Session interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub is the process-wide registry of live sessions keyed by user id. A user
// may hold several sessions at once (multiple tabs); Publish writes the event
// to each of them. The hub is created at startup and injected wherever events
// are published.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[Session]*sessionState
}

// sessionState carries the per-session write lock. A websocket connection
// supports at most one concurrent writer, so every WriteJSON on a session
// must hold its lock.
type sessionState struct {
	writeMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[Session]*sessionState),
	}
}

// Join registers a session under the given user id.
func (h *Hub) Join(userID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[Session]*sessionState)
	}
	h.sessions[userID][s] = &sessionState{}
	logging.Logger.Debugf("Event ID: WS_SESSION_JOINED, Description: Session joined for user %s (%d active)", userID, len(h.sessions[userID]))
}

// Leave removes a session; the user entry is dropped once its last session
// disconnects.
func (h *Hub) Leave(userID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.sessions[userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, userID)
		}
	}
}

// Publish delivers the event to every session of the given user. No sessions
// means no delivery; there is nothing to retry because the durable copy
// already exists in the notifications collection. Writes to one session are
// serialized through its write lock; the registry lock is released first so a
// slow client cannot stall joins and leaves.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	targets := make(map[Session]*sessionState, len(h.sessions[userID]))
	for s, state := range h.sessions[userID] {
		targets[s] = state
	}
	h.mu.RUnlock()

	for s, state := range targets {
		state.writeMu.Lock()
		err := s.WriteJSON(event)
		state.writeMu.Unlock()
		if err != nil {
			logging.Logger.Warnf("Event ID: WS_PUBLISH_FAILED, Description: Failed to push event to a session of user %s: %v", userID, err)
		}
	}
}

// SessionCount returns the number of live sessions for a user.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// CloseAll closes every session and empties the registry. Called at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.sessions {
		for s := range set {
			_ = s.Close()
		}
	}
	h.sessions = make(map[string]map[Session]*sessionState)
}
