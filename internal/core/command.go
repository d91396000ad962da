package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandHandshake is the literal "MojaChat" greeting.
	CommandHandshake CommandKind = iota
	// CommandPolicy is a legacy cross-domain policy probe.
	CommandPolicy
	// CommandEnter joins a room, leaving the current one first.
	CommandEnter
	// CommandExit leaves the current room.
	CommandExit
	// CommandSet updates one attribute group and broadcasts it.
	CommandSet
	// CommandReset broadcasts a reset command.
	CommandReset
	// CommandComment broadcasts a chat comment.
	CommandComment
	// CommandIgnore broadcasts an ignore signal.
	CommandIgnore
	// CommandNop is a keep-alive.
	CommandNop
)

func (k CommandKind) String() string {
	switch k {
	case CommandHandshake:
		return "handshake"
	case CommandPolicy:
		return "policy-file-request"
	case CommandEnter:
		return "ENTER"
	case CommandExit:
		return "EXIT"
	case CommandSet:
		return "SET"
	case CommandReset:
		return "RSET"
	case CommandComment:
		return "COM"
	case CommandIgnore:
		return "IG"
	case CommandNop:
		return "NOP"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind

	// ENTER
	Room       string
	Capacity   int
	TripSecret string
	Occupant   Occupant

	// SET, RSET
	Set SetPatch

	// COM, IG
	Comment Comment
	Ignore  Ignore
}
