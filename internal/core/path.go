package core

import "strings"

// RoomPath is a normalized absolute room path such as "/MONA8094/1".
type RoomPath string

// RootPath is the top of the room namespace.
const RootPath RoomPath = "/"

// NormalizePath resolves a client supplied room path into its canonical form.
// Relative paths are rooted at "/", "." segments are dropped and ".." segments
// are resolved lexically without ever climbing above the root.
func NormalizePath(raw string) RoomPath {
	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return RootPath
	}
	return RoomPath("/" + strings.Join(segments, "/"))
}

// IsRoot reports whether p is the namespace root.
func (p RoomPath) IsRoot() bool {
	return p == RootPath
}

// Parent returns the enclosing room. The root has no parent.
func (p RoomPath) Parent() (RoomPath, bool) {
	if p.IsRoot() || p == "" {
		return "", false
	}
	idx := strings.LastIndexByte(string(p), '/')
	if idx <= 0 {
		return RootPath, true
	}
	return p[:idx], true
}

// Name is the final path segment, used as the display name in COUNT events.
func (p RoomPath) Name() string {
	if p.IsRoot() {
		return ""
	}
	return string(p[strings.LastIndexByte(string(p), '/')+1:])
}

func (p RoomPath) String() string {
	return string(p)
}
