package realtime

import "sync"

// Registry is the single source of truth for room membership. Sessions are
// tracked by opaque id so the registry stays independent of any transport.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // room -> member session ids
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Join adds the session to the room. Joining twice is a no-op.
func (r *Registry) Join(sessionID, room string) {
	if sessionID == "" || room == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[sessionID] = struct{}{}
}

// Leave removes the session from the room. Leaving a room not joined is a
// no-op. Empty rooms are deleted.
func (r *Registry) Leave(sessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// RemoveSession removes the session from every room it belongs to.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room, members := range r.rooms {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// DropRoom vacates the room entirely. Used when a stream ends and its room
// no longer has a broadcast to carry.
func (r *Registry) DropRoom(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, room)
}

// MembersOf returns a snapshot of the room's members. The snapshot is safe
// to iterate while the registry keeps mutating.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (r *Registry) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[room])
}

func (r *Registry) IsMember(sessionID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	_, ok = members[sessionID]
	return ok
}
