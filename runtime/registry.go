package runtime

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"partner-hub/contract"
	"partner-hub/domain"
)

type Set map[string]struct{}

// connection is the ephemeral record behind one live transport
// session. It exists only in process memory; a reconnecting client
// gets a brand new record and must re-join its rooms.
type connection struct {
	userID string
	sink   contract.EventSink
	rooms  map[domain.RoomID]struct{}
}

// Registry maps authenticated user identities to their live
// connections and connections to the rooms they joined. A user may
// hold several simultaneous connections (multiple browser tabs); the
// user entry disappears the instant the last one disconnects.
//
// A single lock guards both indexes so that check-then-insert and
// remove-if-empty sequences are atomic: two near-simultaneous
// connects for one user can never race into two user entries.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*connection // connectionID -> record
	users       map[string]Set         // userID -> connectionIDs
	roomMembers map[domain.RoomID]Set  // roomID -> connectionIDs
	onlineSince map[string]time.Time   // userID -> first connect
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*connection),
		users:       make(map[string]Set),
		roomMembers: make(map[domain.RoomID]Set),
		onlineSince: make(map[string]time.Time),
	}
}

// Connect records the mapping under the registry lock. Reports whether
// this was the user's zero-to-one transition so the caller can
// announce presence exactly once.
func (r *Registry) Connect(userID, connectionID string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[connectionID] = &connection{
		userID: userID,
		sink:   sink,
		rooms:  make(map[domain.RoomID]struct{}),
	}

	conns, ok := r.users[userID]
	if !ok {
		conns = make(Set)
		r.users[userID] = conns
		r.onlineSince[userID] = time.Now().UTC()
	}
	first := len(conns) == 0
	conns[connectionID] = struct{}{}
	return first
}

// Disconnect removes the connection, its room memberships, and the
// user entry when no connections remain. Reports whether this was the
// user's one-to-zero transition.
func (r *Registry) Disconnect(userID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connectionID]
	if !ok {
		return false
	}
	delete(r.connections, connectionID)

	// Implicit leave of every joined room.
	for roomID := range conn.rooms {
		r.removeFromRoom(connectionID, roomID)
	}

	conns, ok := r.users[userID]
	if !ok {
		return false
	}
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(r.users, userID)
		delete(r.onlineSince, userID)
		return true
	}
	return false
}

// Resolve returns the live sinks for a user. An empty result is the
// normal "recipient offline" case: the durable store already has the
// data, there is simply nobody to push it to.
func (r *Registry) Resolve(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for connectionID := range r.users[userID] {
		if conn, ok := r.connections[connectionID]; ok {
			sinks = append(sinks, conn.sink)
		}
	}
	return sinks
}

// SinksExcept returns every live sink not owned by userID, used to
// announce presence transitions to all other connected clients.
func (r *Registry) SinksExcept(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, conn := range r.connections {
		if conn.userID != userID {
			sinks = append(sinks, conn.sink)
		}
	}
	return sinks
}

// JoinRoom is idempotent: joining twice leaves the same membership as
// joining once. Joining from an unknown connection is a no-op.
func (r *Registry) JoinRoom(connectionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connectionID]
	if !ok {
		return
	}
	conn.rooms[roomID] = struct{}{}

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][connectionID] = struct{}{}
}

func (r *Registry) LeaveRoom(connectionID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.connections[connectionID]; ok {
		delete(conn.rooms, roomID)
	}
	r.removeFromRoom(connectionID, roomID)
}

// SinksForRoom retrieves all active sinks for a room's current
// members. Returns nil if the room doesn't exist or has no members.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connectionID := range members {
		if conn, ok := r.connections[connectionID]; ok {
			sinks = append(sinks, conn.sink)
		}
	}
	return sinks
}

// Snapshot returns a point-in-time presence view for the admin API.
func (r *Registry) Snapshot() []domain.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapToSlice(r.users, func(userID string, conns Set) domain.PresenceEntry {
		rooms := make(map[domain.RoomID]struct{})
		for connectionID := range conns {
			if conn, ok := r.connections[connectionID]; ok {
				for roomID := range conn.rooms {
					rooms[roomID] = struct{}{}
				}
			}
		}
		return domain.PresenceEntry{
			UserID:      userID,
			Connections: len(conns),
			Rooms:       len(rooms),
			Since:       r.onlineSince[userID],
		}
	})
}

// removeFromRoom must run under the write lock. Empty room entries are
// deleted so the map never leaks rooms nobody listens to.
func (r *Registry) removeFromRoom(connectionID string, roomID domain.RoomID) {
	members, ok := r.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.roomMembers, roomID)
	}
}
