package core

// Occupant is the public attribute set of a client inside a room.
// Values are kept as the client sent them; the server only attaches ID, Trip and IHash.
type Occupant struct {
	ID    int
	Name  string
	Trip  string
	IHash string
	Stat  string
	Type  string
	R     string
	G     string
	B     string
	X     string
	Y     string
	Scl   string
	Cmd   string
	Pre   string
	Param string

	// Anonymous requests the identity-only ENTER broadcast.
	Anonymous bool
}

// SetKind selects which attribute group a SET command updates.
type SetKind int

const (
	// SetPosition updates x, y and scl.
	SetPosition SetKind = iota
	// SetStatus updates stat.
	SetStatus
	// SetCommand updates cmd, pre and param.
	SetCommand
)

// SetPatch is a partial occupant update. Empty strings are left untouched.
type SetPatch struct {
	Kind  SetKind
	X     string
	Y     string
	Scl   string
	Stat  string
	Cmd   string
	Pre   string
	Param string
}

// Apply writes the patch's group into o.
func (p SetPatch) Apply(o *Occupant) {
	switch p.Kind {
	case SetPosition:
		assign(&o.X, p.X)
		assign(&o.Y, p.Y)
		assign(&o.Scl, p.Scl)
	case SetStatus:
		o.Stat = p.Stat
	case SetCommand:
		o.Cmd = p.Cmd
		o.Pre = p.Pre
		o.Param = p.Param
	}
}

func assign(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
