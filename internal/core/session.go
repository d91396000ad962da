package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/mojachat-server/internal/store"
)

// SessionState is where a connection is in its lifecycle.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateIdle
	StateInRoom
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateIdle:
		return "idle"
	case StateInRoom:
		return "in_room"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const journalTimeout = 2 * time.Second

// Session drives one connection. It is not safe for concurrent use: the
// transport feeds it one command at a time from the connection's read loop.
type Session struct {
	hub    *Hub
	client *Client
	log    zerolog.Logger

	identity int
	ihash    string
	room     RoomPath
	inRoom   bool
	comments int
	limiter  *rateLimiter
	closed   bool
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	switch {
	case s.closed:
		return StateClosed
	case s.identity == 0:
		return StateUnauthenticated
	case s.inRoom:
		return StateInRoom
	default:
		return StateIdle
	}
}

// Identity returns the assigned identity, or 0 before the handshake.
func (s *Session) Identity() int { return s.identity }

// Room returns the current room, if any.
func (s *Session) Room() (RoomPath, bool) { return s.room, s.inRoom }

// Handle processes one command. Returned errors are reportable and never require
// closing the connection.
func (s *Session) Handle(ctx context.Context, cmd *Command) error {
	if s.closed {
		return ErrSessionClosed
	}

	switch cmd.Kind {
	case CommandPolicy:
		s.policy()
		return nil
	case CommandHandshake:
		return s.handshake(ctx)
	}

	if s.identity == 0 {
		return coreError(ErrCodeNotAuthenticated, cmd.Kind.String()+" before handshake")
	}

	switch cmd.Kind {
	case CommandEnter:
		s.enter(ctx, cmd)
		return nil
	case CommandExit:
		s.exit(ctx)
		return nil
	case CommandSet:
		return s.set(cmd.Set)
	case CommandReset:
		return s.reset(cmd.Set)
	case CommandComment:
		return s.comment(cmd.Comment)
	case CommandIgnore:
		return s.ignore(cmd.Ignore)
	case CommandNop:
		return nil
	default:
		return coreError(ErrCodeProtocol, "unknown command")
	}
}

// Close runs the disconnect path: an implicit EXIT if the session is in a room,
// then the identity goes back to the pool. Calling Close again is a no-op.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true
	if s.identity == 0 {
		return
	}

	defer func() {
		if err := s.hub.IDs.Release(s.identity); err != nil {
			s.log.Warn().Err(err).Msg("release identity")
		}
		s.record(ctx, store.PresenceDisconnect, "")
		s.log.Debug().Msg("session closed")
	}()

	if s.inRoom {
		s.leave(ctx, false)
	}
}

func (s *Session) policy() {
	if s.hub.cfg.PolicyResponse == "" {
		return
	}
	s.send(&Event{Kind: EventPolicy, Text: s.hub.cfg.PolicyResponse})
}

func (s *Session) handshake(ctx context.Context) error {
	if s.identity != 0 {
		return coreError(ErrCodeProtocol, "duplicate handshake")
	}

	s.identity = s.hub.IDs.Acquire()
	s.log = s.log.With().Int("client_id", s.identity).Logger()

	s.send(&Event{Kind: EventConnectLine, ID: s.identity})
	s.send(&Event{Kind: EventConnect, ID: s.identity})
	s.record(ctx, store.PresenceConnect, "")
	s.log.Info().Msg("client connected")
	return nil
}

func (s *Session) enter(ctx context.Context, cmd *Command) {
	if s.inRoom {
		s.leave(ctx, false)
	}

	path := NormalizePath(cmd.Room)
	occ := cmd.Occupant
	occ.ID = s.identity
	occ.IHash = s.ihash
	occ.Trip = ""
	if cmd.TripSecret != "" {
		occ.Trip = s.hub.digest.Digest(cmd.TripSecret)
	}

	res, err := s.hub.Rooms.Enter(path, occ, s.client, cmd.Capacity)
	if errors.Is(err, ErrRoomFull) {
		s.send(&Event{Kind: EventFull})
		s.record(ctx, store.PresenceFull, path.String())
		s.log.Info().Str("room", path.String()).Int("capacity", cmd.Capacity).Msg("room full")
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Str("room", path.String()).Msg("enter failed")
		return
	}

	s.room = path
	s.inRoom = true
	s.comments = 0

	s.send(&Event{Kind: EventRoom, Occupants: res.Snapshot})

	count := RoomCount{Name: path.Name(), Count: res.Count}
	if occ.Anonymous {
		s.send(&Event{Kind: EventUserInfo, ID: occ.ID, Occupant: &occ})
		if children := s.hub.Rooms.ChildCounts(path); len(children) > 0 {
			s.send(&Event{Kind: EventCount, Total: &count, Rooms: children})
		}
		s.broadcast(res.Subscribers, &Event{Kind: EventEnterAnonymous, ID: occ.ID})
	} else {
		s.broadcast(res.Subscribers, &Event{Kind: EventEnter, ID: occ.ID, Occupant: &occ})
	}

	s.broadcast(res.Subscribers, &Event{Kind: EventCount, Total: &count})
	if len(res.ParentSubscribers) > 0 {
		s.broadcast(res.ParentSubscribers, &Event{Kind: EventCount, Rooms: []RoomCount{count}})
	}

	s.record(ctx, store.PresenceEnter, path.String())
	s.log.Info().Str("room", path.String()).Int("count", res.Count).Bool("anonymous", occ.Anonymous).Msg("entered room")
}

func (s *Session) exit(ctx context.Context) {
	if !s.inRoom {
		s.send(&Event{Kind: EventExit, ID: s.identity})
		return
	}
	s.leave(ctx, true)
}

// leave is the single exit path shared by EXIT, a move to another room and disconnect.
// echo also sends the leaver its own EXIT and the room's new COUNT.
func (s *Session) leave(ctx context.Context, echo bool) {
	path := s.room
	s.room = ""
	s.inRoom = false
	s.comments = 0

	res, err := s.hub.Rooms.Exit(path, s.identity)
	if err != nil {
		s.log.Warn().Err(err).Str("room", path.String()).Msg("room membership out of sync")
		return
	}

	count := RoomCount{Name: path.Name(), Count: res.Count}
	exitEv := &Event{Kind: EventExit, ID: s.identity}
	countEv := &Event{Kind: EventCount, Total: &count}

	if echo {
		s.send(exitEv)
	}
	s.broadcast(res.Subscribers, exitEv)
	if echo {
		s.send(countEv)
	}
	s.broadcast(res.Subscribers, countEv)
	if len(res.ParentSubscribers) > 0 {
		s.broadcast(res.ParentSubscribers, &Event{Kind: EventCount, Rooms: []RoomCount{count}})
	}

	s.record(ctx, store.PresenceExit, path.String())
	s.log.Info().Str("room", path.String()).Int("count", res.Count).Msg("left room")
}

func (s *Session) set(patch SetPatch) error {
	if !s.inRoom {
		return coreError(ErrCodeNotInRoom, "SET outside a room")
	}
	subs, err := s.hub.Rooms.Update(s.room, s.identity, patch)
	if err != nil {
		return coreError(ErrCodeUnknownOccupant, err.Error())
	}
	s.broadcast(subs, &Event{Kind: EventSet, ID: s.identity, Set: &patch})
	return nil
}

func (s *Session) reset(patch SetPatch) error {
	if !s.inRoom {
		return coreError(ErrCodeNotInRoom, "RSET outside a room")
	}
	s.broadcast(s.hub.Rooms.Subscribers(s.room), &Event{Kind: EventReset, ID: s.identity, Set: &patch})
	return nil
}

func (s *Session) comment(c Comment) error {
	if !s.inRoom {
		return coreError(ErrCodeNotInRoom, "COM outside a room")
	}
	if !s.limiter.allow() {
		return coreError(ErrCodeRateLimited, "comment rate limit exceeded")
	}
	c.Seq = s.comments
	s.comments++
	s.broadcast(s.hub.Rooms.Subscribers(s.room), &Event{Kind: EventComment, ID: s.identity, Comment: &c})
	return nil
}

func (s *Session) ignore(ig Ignore) error {
	if !s.inRoom {
		return coreError(ErrCodeNotInRoom, "IG outside a room")
	}
	s.broadcast(s.hub.Rooms.Subscribers(s.room), &Event{Kind: EventIgnore, ID: s.identity, Ignore: &ig})
	return nil
}

func (s *Session) send(ev *Event) {
	if err := s.client.TrySend(ev); err != nil {
		s.log.Debug().Err(err).Stringer("event", ev.Kind).Msg("drop event")
	}
}

func (s *Session) broadcast(subs []*Client, ev *Event) {
	if sent := Broadcast(subs, ev); sent < len(subs) {
		s.log.Debug().Stringer("event", ev.Kind).Int("sent", sent).Int("dropped", len(subs)-sent).Msg("broadcast result")
	}
}

func (s *Session) record(ctx context.Context, kind store.PresenceKind, room string) {
	if s.hub.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	err := s.hub.journal.RecordPresence(ctx, store.PresenceEvent{
		Kind:     kind,
		ClientID: s.identity,
		Room:     room,
		IHash:    s.ihash,
		At:       time.Now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("journal presence")
	}
}
