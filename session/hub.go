// Package session tracks live realtime connections and their declared
// identity. The roster is process-local and starts empty on every restart;
// nothing about presence is persisted.
package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GuestName is the identity shown for sessions that never identified.
const GuestName = "Guest"

// Identity is what a client declared about itself.
type Identity struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Entry is one connected session in a roster snapshot.
type Entry struct {
	SocketID string `json:"socketId"`
	Identity
}

// Snapshot is the full presence roster broadcast on every change. It is
// always a complete snapshot, never a delta.
type Snapshot struct {
	Count int     `json:"count"`
	Users []Entry `json:"users"`
}

// Sender delivers one server event to a single session. Implementations
// must be safe for concurrent use.
type Sender func(event string, data any)

type state struct {
	identity Identity
	send     Sender
}

// Hub owns the roster of connected sessions. All state is behind its mutex;
// nothing else may reach the roster directly.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*state
}

func NewHub() *Hub {
	return &Hub{sessions: map[string]*state{}}
}

// Connect registers a new session with a Guest identity, broadcasts the
// updated roster to everyone and returns the session id.
func (h *Hub) Connect(send Sender) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.sessions[id] = &state{identity: Identity{Username: GuestName}, send: send}
	h.mu.Unlock()
	log.WithField("socket", id).Debug("session connected")
	h.broadcastRoster()
	return id
}

// Identify overwrites the declared identity of a session. Re-identifying is
// allowed any number of times.
func (h *Hub) Identify(id string, ident Identity) {
	if ident.Username == "" {
		ident.Username = GuestName
	}
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		s.identity = ident
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	log.WithFields(log.Fields{"socket": id, "user": ident.Username}).Debug("session identified")
	h.broadcastRoster()
}

// Disconnect removes a session from the roster and broadcasts the updated
// roster to the remaining sessions.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	log.WithField("socket", id).Debug("session disconnected")
	h.broadcastRoster()
}

// Snapshot returns the current roster, sessions sorted by socket id.
func (h *Hub) Snapshot() Snapshot {
	h.mu.Lock()
	users := make([]Entry, 0, len(h.sessions))
	for id, s := range h.sessions {
		users = append(users, Entry{SocketID: id, Identity: s.identity})
	}
	h.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].SocketID < users[j].SocketID })
	return Snapshot{Count: len(users), Users: users}
}

// Broadcast fans an event out to every connected session, the originator
// included.
func (h *Hub) Broadcast(event string, data any) {
	for _, send := range h.senders() {
		send(event, data)
	}
}

// Send delivers an event to one session only. It reports whether the
// session was still connected.
func (h *Hub) Send(id, event string, data any) bool {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return false
	}
	s.send(event, data)
	return true
}

func (h *Hub) senders() []Sender {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Sender, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s.send)
	}
	return out
}

func (h *Hub) broadcastRoster() {
	snap := h.Snapshot()
	h.Broadcast("users:online", snap)
}
