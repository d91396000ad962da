package core

import "github.com/samber/lo"

type member struct {
	occupant *Occupant
	client   *Client
}

// Room holds the occupants of one room path in arrival order.
// The occupant count, the occupant table and the subscriber list are the same slice,
// so they can never disagree.
type Room struct {
	Path    RoomPath
	members []member
}

// NewRoom constructs a room with no occupants.
func NewRoom(path RoomPath) *Room {
	return &Room{Path: path}
}

// Count returns the number of occupants.
func (r *Room) Count() int {
	return len(r.members)
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

func (r *Room) indexOf(id int) int {
	for i, m := range r.members {
		if m.occupant.ID == id {
			return i
		}
	}
	return -1
}

// AddClient appends an occupant. Returns false if the identity is already present.
func (r *Room) AddClient(o *Occupant, c *Client) bool {
	if r.indexOf(o.ID) >= 0 {
		return false
	}
	r.members = append(r.members, member{occupant: o, client: c})
	return true
}

// RemoveClient deletes the occupant with the given identity. Returns true if removed.
func (r *Room) RemoveClient(id int) bool {
	idx := r.indexOf(id)
	if idx < 0 {
		return false
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	return true
}

// occupant returns the live record for id, or nil.
func (r *Room) occupant(id int) *Occupant {
	if idx := r.indexOf(id); idx >= 0 {
		return r.members[idx].occupant
	}
	return nil
}

// Snapshot copies the occupant attributes in arrival order.
func (r *Room) Snapshot() []Occupant {
	return lo.Map(r.members, func(m member, _ int) Occupant {
		return *m.occupant
	})
}

// Subscribers copies the connection handles in arrival order.
func (r *Room) Subscribers() []*Client {
	return lo.Map(r.members, func(m member, _ int) *Client {
		return m.client
	})
}
