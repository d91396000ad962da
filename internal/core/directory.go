package core

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// EnterResult is what a successful Directory.Enter observed.
type EnterResult struct {
	// Snapshot lists the occupants present before the arrival.
	Snapshot []Occupant
	Count    int
	// Subscribers includes the new arrival.
	Subscribers       []*Client
	ParentSubscribers []*Client
}

// ExitResult is what a successful Directory.Exit observed.
type ExitResult struct {
	Count int
	// Subscribers are the occupants that remain.
	Subscribers       []*Client
	ParentSubscribers []*Client
}

// RoomInfo is a read-only listing entry.
type RoomInfo struct {
	Path  RoomPath
	Count int
}

// Directory owns every room. All compound operations run under one lock;
// subscriber lists are returned as copies so fan-out can happen after unlock.
type Directory struct {
	mu       sync.RWMutex
	rooms    map[RoomPath]*Room
	children map[RoomPath]map[RoomPath]struct{}
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		rooms:    make(map[RoomPath]*Room),
		children: make(map[RoomPath]map[RoomPath]struct{}),
	}
}

// Enter admits occ into path. capacity <= 0 means unlimited.
// On ErrRoomFull nothing is changed.
func (d *Directory) Enter(path RoomPath, occ Occupant, c *Client, capacity int) (*EnterResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.rooms[path]
	if capacity > 0 && room != nil && room.Count() >= capacity {
		return nil, ErrRoomFull
	}
	if room == nil {
		room = d.createLocked(path)
	}

	snapshot := room.Snapshot()
	record := occ
	if !room.AddClient(&record, c) {
		return nil, fmt.Errorf("enter %s as %d: already present", path, occ.ID)
	}

	return &EnterResult{
		Snapshot:          snapshot,
		Count:             room.Count(),
		Subscribers:       room.Subscribers(),
		ParentSubscribers: d.parentSubscribersLocked(path),
	}, nil
}

// Exit removes identity id from path.
func (d *Directory) Exit(path RoomPath, id int) (*ExitResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.rooms[path]
	if room == nil || !room.RemoveClient(id) {
		return nil, ErrNotInRoom
	}

	return &ExitResult{
		Count:             room.Count(),
		Subscribers:       room.Subscribers(),
		ParentSubscribers: d.parentSubscribersLocked(path),
	}, nil
}

// Update applies patch to the occupant record and returns the room's subscribers.
func (d *Directory) Update(path RoomPath, id int, patch SetPatch) ([]*Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.rooms[path]
	if room == nil {
		return nil, ErrUnknownOccupant
	}
	occ := room.occupant(id)
	if occ == nil {
		return nil, ErrUnknownOccupant
	}
	patch.Apply(occ)
	return room.Subscribers(), nil
}

// OccupantCount returns the number of occupants in path. Unknown rooms count as zero.
func (d *Directory) OccupantCount(path RoomPath) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if room := d.rooms[path]; room != nil {
		return room.Count()
	}
	return 0
}

// Subscribers returns a copy of the connections currently in path.
func (d *Directory) Subscribers(path RoomPath) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if room := d.rooms[path]; room != nil {
		return room.Subscribers()
	}
	return nil
}

// Snapshot returns the occupants of path in arrival order.
func (d *Directory) Snapshot(path RoomPath) []Occupant {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if room := d.rooms[path]; room != nil {
		return room.Snapshot()
	}
	return nil
}

// ChildCounts lists rooms directly under parent that have ever had an occupant.
func (d *Directory) ChildCounts(parent RoomPath) []RoomCount {
	d.mu.RLock()
	defer d.mu.RUnlock()

	kids := d.children[parent]
	out := make([]RoomCount, 0, len(kids))
	for child := range kids {
		out = append(out, RoomCount{Name: child.Name(), Count: d.rooms[child].Count()})
	}
	sort.Slice(out, func(i, j int) bool {
		return lessRoomName(out[i].Name, out[j].Name)
	})
	return out
}

// Rooms lists every known room ordered by path.
func (d *Directory) Rooms() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]RoomInfo, 0, len(d.rooms))
	for path, room := range d.rooms {
		out = append(out, RoomInfo{Path: path, Count: room.Count()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (d *Directory) createLocked(path RoomPath) *Room {
	room := NewRoom(path)
	d.rooms[path] = room
	if parent, ok := path.Parent(); ok {
		kids := d.children[parent]
		if kids == nil {
			kids = make(map[RoomPath]struct{})
			d.children[parent] = kids
		}
		kids[path] = struct{}{}
	}
	return room
}

func (d *Directory) parentSubscribersLocked(path RoomPath) []*Client {
	parent, ok := path.Parent()
	if !ok {
		return nil
	}
	if room := d.rooms[parent]; room != nil && !room.Empty() {
		return room.Subscribers()
	}
	return nil
}

// lessRoomName orders numeric names numerically ("2" < "10") and everything else lexically after them.
func lessRoomName(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
