package relay

import "sync"

// Registry owns all room state: the room-to-members map and the
// connection-to-room side table. A single mutex guards both, and every
// read used for a broadcast snapshots the member set under that same
// lock so sends never race joins and leaves.
//
// Rooms exist only while they have members: Create joins the issuing
// connection in the same critical section that picks the id, Join
// creates missing rooms (join-or-create), and Leave deletes rooms it
// empties.
type Registry struct {
	mu         sync.Mutex
	rooms      map[string]map[*Client]struct{}
	membership map[*Client]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]map[*Client]struct{}),
		membership: make(map[*Client]string),
	}
}

// Create picks a fresh room id and joins c to it. The id generator is
// collision-resistant; the loop only matters if ten random bytes ever
// collide with a live room.
func (r *Registry) Create(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id string
	for {
		id = newRoomID()
		if _, exists := r.rooms[id]; !exists {
			break
		}
	}
	r.joinLocked(c, id)
	return id
}

// Join adds c to the room, creating it if it does not exist. A
// connection holds at most one membership, so any previous room is
// left first.
func (r *Registry) Join(c *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joinLocked(c, roomID)
}

func (r *Registry) joinLocked(c *Client, roomID string) {
	if prev, ok := r.membership[c]; ok && prev != roomID {
		r.leaveLocked(c)
	}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[roomID] = members
	}
	members[c] = struct{}{}
	r.membership[c] = roomID
}

// Leave removes c from its room, deleting the room when it empties. It
// returns the room id and a snapshot of the remaining members so the
// caller can broadcast peer-left outside the lock. Calling Leave on a
// connection with no membership is a no-op.
func (r *Registry) Leave(c *Client) (string, []*Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(c)
}

func (r *Registry) leaveLocked(c *Client) (string, []*Client) {
	roomID, ok := r.membership[c]
	if !ok {
		return "", nil
	}
	delete(r.membership, c)

	members := r.rooms[roomID]
	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, roomID)
		return roomID, nil
	}
	return roomID, snapshot(members, nil)
}

// Members returns the current members of a room excluding the sender,
// and whether the room exists at all.
func (r *Registry) Members(roomID string, except *Client) ([]*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return snapshot(members, except), true
}

// Peers returns the other members of c's current room.
func (r *Registry) Peers(c *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.membership[c]
	if !ok {
		return nil
	}
	return snapshot(r.rooms[roomID], c)
}

// RoomCount reports the number of live rooms.
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// RoomOf returns the room id c currently belongs to, if any.
func (r *Registry) RoomOf(c *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.membership[c]
	return roomID, ok
}

func snapshot(members map[*Client]struct{}, except *Client) []*Client {
	out := make([]*Client, 0, len(members))
	for m := range members {
		if m != except {
			out = append(out, m)
		}
	}
	return out
}
