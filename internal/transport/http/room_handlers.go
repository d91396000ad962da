package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/mojachat-server/internal/core"
)

// RoomHandlers exposes read-only views of the room directory.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RoomCountResponse is one child room in a lobby listing.
type RoomCountResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ChildCountsResponse is the lobby view of one room.
type ChildCountsResponse struct {
	Path     string              `json:"path"`
	Count    int                 `json:"count"`
	Children []RoomCountResponse `json:"children"`
}

// OccupantResponse is the public view of an occupant. It matches what other
// clients see in a ROOM snapshot.
type OccupantResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Trip  string `json:"trip,omitempty"`
	IHash string `json:"ihash,omitempty"`
	Stat  string `json:"stat,omitempty"`
	Type  string `json:"type,omitempty"`
}

// StatsResponse summarizes the server.
type StatsResponse struct {
	Connected int            `json:"connected"`
	Rooms     []RoomResponse `json:"rooms"`
}

// ListRooms lists every known room with its count.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := lo.Map(h.hub.Rooms.Rooms(), func(r core.RoomInfo, _ int) RoomResponse {
		return RoomResponse{Path: r.Path.String(), Name: r.Path.Name(), Count: r.Count}
	})

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, StatsResponse{
		Connected: h.hub.IDs.Active(),
		Rooms:     rooms,
	})
}

// ChildCounts returns the lobby view of a room.
// GET /api/rooms/children?path=/MONA8094
func (h *RoomHandlers) ChildCounts(c *gin.Context) {
	path, ok := h.pathParam(c)
	if !ok {
		return
	}

	children := lo.Map(h.hub.Rooms.ChildCounts(path), func(rc core.RoomCount, _ int) RoomCountResponse {
		return RoomCountResponse{Name: rc.Name, Count: rc.Count}
	})
	c.JSON(http.StatusOK, ChildCountsResponse{
		Path:     path.String(),
		Count:    h.hub.Rooms.OccupantCount(path),
		Children: children,
	})
}

// Occupants lists who is in a room, in arrival order.
// GET /api/rooms/occupants?path=/MONA8094/1
func (h *RoomHandlers) Occupants(c *gin.Context) {
	path, ok := h.pathParam(c)
	if !ok {
		return
	}

	occupants := lo.Map(h.hub.Rooms.Snapshot(path), func(o core.Occupant, _ int) OccupantResponse {
		return OccupantResponse{ID: o.ID, Name: o.Name, Trip: o.Trip, IHash: o.IHash, Stat: o.Stat, Type: o.Type}
	})
	c.JSON(http.StatusOK, occupants)
}

func (h *RoomHandlers) pathParam(c *gin.Context) (core.RoomPath, bool) {
	raw := c.Query("path")
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "path is required"})
		return "", false
	}
	return core.NormalizePath(raw), true
}
