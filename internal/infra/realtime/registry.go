package realtime

import "sync"

// Peer is one live client connection as the registry and dispatcher see it.
// Deliver must not block: implementations enqueue and report a dead or
// saturated transport as an error.
type Peer interface {
	ID() string
	Deliver(evt ServerEvent) error
	Live() bool
}

// Registry tracks which live connections belong to which slot room. Callers
// never touch the raw membership maps; every mutation happens under the
// registry's own lock and no lock is ever held across I/O.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Peer
	joined map[string]string // peer id -> slot id
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]Peer),
		joined: make(map[string]string),
	}
}

// Join adds the peer to the slot's room. A peer holds at most one
// membership: joining a second room implicitly leaves the first.
func (r *Registry) Join(slotID string, p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(p.ID())
	room, ok := r.rooms[slotID]
	if !ok {
		room = make(map[string]Peer)
		r.rooms[slotID] = room
	}
	room[p.ID()] = p
	r.joined[p.ID()] = slotID
}

// Leave removes the peer from whatever room it is in. Leaving while absent
// is a no-op.
func (r *Registry) Leave(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(p.ID())
}

// Members returns a snapshot of the slot's current room.
func (r *Registry) Members(slotID string) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[slotID]
	members := make([]Peer, 0, len(room))
	for _, p := range room {
		members = append(members, p)
	}
	return members
}

// Room reports which slot the peer is joined to, if any.
func (r *Registry) Room(peerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slotID, ok := r.joined[peerID]
	return slotID, ok
}

func (r *Registry) removeLocked(peerID string) {
	slotID, ok := r.joined[peerID]
	if !ok {
		return
	}
	delete(r.joined, peerID)
	if room, ok := r.rooms[slotID]; ok {
		delete(room, peerID)
		if len(room) == 0 {
			delete(r.rooms, slotID)
		}
	}
}
