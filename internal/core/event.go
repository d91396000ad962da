package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventConnectLine is the plain "+connect id=N" acknowledgement of the handshake.
	EventConnectLine EventKind = iota
	// EventConnect confirms the handshake with the assigned identity.
	EventConnect
	// EventRoom delivers the snapshot of occupants already in the room.
	EventRoom
	// EventUserInfo confirms identity to an anonymous entrant.
	EventUserInfo
	// EventEnter announces an arrival with the full attribute set.
	EventEnter
	// EventEnterAnonymous announces an arrival by identity only.
	EventEnterAnonymous
	// EventExit announces a departure.
	EventExit
	// EventCount carries a room count and/or child room counts.
	EventCount
	// EventFull tells an entrant the room is at capacity.
	EventFull
	// EventSet carries an updated attribute group.
	EventSet
	// EventReset carries a reset command.
	EventReset
	// EventComment carries a chat comment with its sequence number.
	EventComment
	// EventIgnore carries an ignore signal.
	EventIgnore
	// EventPolicy carries the configured cross-domain policy document verbatim.
	EventPolicy
)

func (k EventKind) String() string {
	switch k {
	case EventConnectLine:
		return "connect_line"
	case EventConnect:
		return "connect"
	case EventRoom:
		return "room"
	case EventUserInfo:
		return "uinfo"
	case EventEnter:
		return "enter"
	case EventEnterAnonymous:
		return "enter_anonymous"
	case EventExit:
		return "exit"
	case EventCount:
		return "count"
	case EventFull:
		return "full"
	case EventSet:
		return "set"
	case EventReset:
		return "rset"
	case EventComment:
		return "com"
	case EventIgnore:
		return "ig"
	case EventPolicy:
		return "policy"
	default:
		return "unknown"
	}
}

// RoomCount is the occupancy of one room as shown in COUNT events.
type RoomCount struct {
	Name  string
	Count int
}

// Comment is the payload of a COM event.
type Comment struct {
	Text  string
	Style string
	Seq   int
}

// Ignore is the payload of an IG event.
type Ignore struct {
	IHash string
	Stat  string
}

// Event is sent to clients to describe what happened in the system.
// Events are shared between subscribers and must not be mutated after sending.
type Event struct {
	Kind EventKind
	// ID is the identity the event is about (sender, entrant, leaver).
	ID int

	Occupant  *Occupant  // EventEnter, EventUserInfo
	Occupants []Occupant // EventRoom

	// Total is the room's own count; nil for the parent aggregation form.
	Total *RoomCount
	Rooms []RoomCount // EventCount children

	Set     *SetPatch // EventSet, EventReset
	Comment *Comment
	Ignore  *Ignore
	Text    string // EventPolicy
}
