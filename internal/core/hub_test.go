package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/mojachat-server/internal/store"
)

func TestSessionHandshake(t *testing.T) {
	hub := newTestHub(HubConfig{})
	client := NewClient("a", "10.0.0.1", 8)
	s := hub.NewSession(client, "10.0.0.1")

	require.Equal(t, StateUnauthenticated, s.State())
	require.NoError(t, s.Handle(context.Background(), &Command{Kind: CommandHandshake}))

	events := drain(client)
	require.Equal(t, []EventKind{EventConnectLine, EventConnect}, kinds(events))
	require.Equal(t, 1, events[0].ID)
	require.Equal(t, 1, events[1].ID)
	require.Equal(t, StateIdle, s.State())
	require.Equal(t, 1, s.Identity())

	err := s.Handle(context.Background(), &Command{Kind: CommandHandshake})
	requireCoreError(t, err, ErrCodeProtocol)
	require.Equal(t, 1, s.Identity())
}

func TestSessionRejectsCommandsBeforeHandshake(t *testing.T) {
	hub := newTestHub(HubConfig{})
	client := NewClient("a", "10.0.0.1", 8)
	s := hub.NewSession(client, "10.0.0.1")

	err := s.Handle(context.Background(), &Command{Kind: CommandEnter, Room: "/lobby"})
	requireCoreError(t, err, ErrCodeNotAuthenticated)
	require.Empty(t, drain(client))
	require.Zero(t, hub.Rooms.OccupantCount("/lobby"))
}

func TestSessionPolicyResponse(t *testing.T) {
	hub := newTestHub(HubConfig{PolicyResponse: "<cross-domain-policy />"})
	client := NewClient("a", "10.0.0.1", 8)
	s := hub.NewSession(client, "10.0.0.1")

	require.NoError(t, s.Handle(context.Background(), &Command{Kind: CommandPolicy}))
	events := drain(client)
	require.Len(t, events, 1)
	require.Equal(t, EventPolicy, events[0].Kind)
	require.Equal(t, "<cross-domain-policy />", events[0].Text)

	quiet := newTestHub(HubConfig{})
	other := NewClient("b", "10.0.0.2", 8)
	require.NoError(t, quiet.NewSession(other, "10.0.0.2").Handle(context.Background(), &Command{Kind: CommandPolicy}))
	require.Empty(t, drain(other))
}

func TestSessionEnterTwoClients(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")
	b, cb := connect(t, hub, "10.0.0.2")

	require.NoError(t, a.Handle(context.Background(), &Command{
		Kind:       CommandEnter,
		Room:       "/MONA8094/1",
		TripSecret: "secret",
		Occupant:   Occupant{Name: "alice", Stat: "normal"},
	}))

	events := drain(ca)
	require.Equal(t, []EventKind{EventRoom, EventEnter, EventCount}, kinds(events))
	require.Empty(t, events[0].Occupants)
	require.Equal(t, 1, events[1].ID)
	require.Equal(t, "alice", events[1].Occupant.Name)
	require.Equal(t, "d:secret", events[1].Occupant.Trip)
	require.Equal(t, "d:10.0.0.1", events[1].Occupant.IHash)
	require.Equal(t, &RoomCount{Name: "1", Count: 1}, events[2].Total)
	require.Equal(t, StateInRoom, a.State())

	enter(t, b, "/MONA8094/1", "bob")

	events = drain(cb)
	require.Equal(t, []EventKind{EventRoom, EventEnter, EventCount}, kinds(events))
	require.Len(t, events[0].Occupants, 1)
	require.Equal(t, 1, events[0].Occupants[0].ID)
	require.Equal(t, "alice", events[0].Occupants[0].Name)
	require.Equal(t, 2, events[1].ID)
	require.Equal(t, 2, events[2].Total.Count)

	events = drain(ca)
	require.Equal(t, []EventKind{EventEnter, EventCount}, kinds(events))
	require.Equal(t, 2, events[0].ID)
	require.Empty(t, events[0].Occupant.Trip)
	require.Equal(t, 2, events[1].Total.Count)
}

func TestSessionEnterFullRoom(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, _ := connect(t, hub, "10.0.0.1")
	b, cb := connect(t, hub, "10.0.0.2")

	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandEnter, Room: "/small", Capacity: 1}))
	require.NoError(t, b.Handle(context.Background(), &Command{Kind: CommandEnter, Room: "/small", Capacity: 1}))

	events := drain(cb)
	require.Equal(t, []EventKind{EventFull}, kinds(events))
	require.Equal(t, StateIdle, b.State())
	require.Equal(t, 1, hub.Rooms.OccupantCount("/small"))
}

func TestSessionEnterAnonymous(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")
	b, cb := connect(t, hub, "10.0.0.2")

	enter(t, a, "/MONA8094/1", "alice")
	drain(ca)

	require.NoError(t, b.Handle(context.Background(), &Command{
		Kind:     CommandEnter,
		Room:     "/MONA8094",
		Occupant: Occupant{Name: "bob", Anonymous: true},
	}))

	events := drain(cb)
	require.Equal(t, []EventKind{EventRoom, EventUserInfo, EventCount, EventEnterAnonymous, EventCount}, kinds(events))
	require.Equal(t, "bob", events[1].Occupant.Name)
	require.Equal(t, &RoomCount{Name: "MONA8094", Count: 1}, events[2].Total)
	require.Equal(t, []RoomCount{{Name: "1", Count: 1}}, events[2].Rooms)
	require.Nil(t, events[3].Occupant)
	require.Equal(t, 2, events[3].ID)
	require.Empty(t, events[4].Rooms)

	// alice is in a child room, not in /MONA8094
	require.Empty(t, drain(ca))
}

func TestSessionParentAggregation(t *testing.T) {
	hub := newTestHub(HubConfig{})
	lobby, cl := connect(t, hub, "10.0.0.1")
	b, _ := connect(t, hub, "10.0.0.2")

	enter(t, lobby, "/lobby", "watcher")
	drain(cl)

	enter(t, b, "/lobby/3", "bob")
	events := drain(cl)
	require.Len(t, events, 1)
	require.Equal(t, EventCount, events[0].Kind)
	require.Nil(t, events[0].Total)
	require.Equal(t, []RoomCount{{Name: "3", Count: 1}}, events[0].Rooms)

	require.NoError(t, b.Handle(context.Background(), &Command{Kind: CommandExit}))
	events = drain(cl)
	require.Len(t, events, 1)
	require.Equal(t, []RoomCount{{Name: "3", Count: 0}}, events[0].Rooms)
}

func TestSessionExit(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")
	b, cb := connect(t, hub, "10.0.0.2")

	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandExit}))
	events := drain(ca)
	require.Equal(t, []EventKind{EventExit}, kinds(events))
	require.Equal(t, 1, events[0].ID)

	enter(t, a, "/r", "alice")
	enter(t, b, "/r", "bob")
	drain(ca)
	drain(cb)

	require.NoError(t, b.Handle(context.Background(), &Command{Kind: CommandExit}))
	require.Equal(t, StateIdle, b.State())

	events = drain(cb)
	require.Equal(t, []EventKind{EventExit, EventCount}, kinds(events))
	require.Equal(t, 2, events[0].ID)
	require.Equal(t, &RoomCount{Name: "r", Count: 1}, events[1].Total)

	events = drain(ca)
	require.Equal(t, []EventKind{EventExit, EventCount}, kinds(events))
	require.Equal(t, 2, events[0].ID)
	require.Equal(t, 1, events[1].Total.Count)
}

func TestSessionMoveBetweenRooms(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")
	b, cb := connect(t, hub, "10.0.0.2")

	enter(t, a, "/one", "alice")
	enter(t, b, "/one", "bob")
	drain(ca)
	drain(cb)

	enter(t, b, "/two", "bob")

	events := drain(cb)
	require.Equal(t, []EventKind{EventRoom, EventEnter, EventCount}, kinds(events))

	events = drain(ca)
	require.Equal(t, []EventKind{EventExit, EventCount}, kinds(events))
	require.Equal(t, 1, events[1].Total.Count)

	room, ok := b.Room()
	require.True(t, ok)
	require.Equal(t, RoomPath("/two"), room)
	require.Equal(t, 1, hub.Rooms.OccupantCount("/one"))
}

func TestSessionDisconnectMatchesExit(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")
	b, _ := connect(t, hub, "10.0.0.2")

	enter(t, a, "/r", "alice")
	enter(t, b, "/r", "bob")
	drain(ca)

	b.Close(context.Background())
	require.Equal(t, StateClosed, b.State())

	events := drain(ca)
	require.Equal(t, []EventKind{EventExit, EventCount}, kinds(events))
	require.Equal(t, 2, events[0].ID)
	require.Equal(t, 1, events[1].Total.Count)
	require.False(t, hub.IDs.Held(2))

	// second close is a no-op and the identity is reused
	b.Close(context.Background())
	c, _ := connect(t, hub, "10.0.0.3")
	require.Equal(t, 2, c.Identity())

	require.ErrorIs(t, b.Handle(context.Background(), &Command{Kind: CommandNop}), ErrSessionClosed)
}

func TestSessionCloseBeforeHandshake(t *testing.T) {
	hub := newTestHub(HubConfig{})
	s := hub.NewSession(NewClient("a", "10.0.0.1", 8), "10.0.0.1")

	s.Close(context.Background())
	require.Equal(t, StateClosed, s.State())
	require.Zero(t, hub.IDs.Active())
}

func TestSessionSetUpdatesSnapshot(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")

	err := a.Handle(context.Background(), &Command{Kind: CommandSet, Set: SetPatch{Kind: SetStatus, Stat: "away"}})
	requireCoreError(t, err, ErrCodeNotInRoom)

	enter(t, a, "/r", "alice")
	drain(ca)

	require.NoError(t, a.Handle(context.Background(), &Command{
		Kind: CommandSet,
		Set:  SetPatch{Kind: SetPosition, X: "120", Y: "275"},
	}))
	events := drain(ca)
	require.Equal(t, []EventKind{EventSet}, kinds(events))
	require.Equal(t, "120", events[0].Set.X)

	snap := hub.Rooms.Snapshot("/r")
	require.Len(t, snap, 1)
	require.Equal(t, "120", snap[0].X)
	require.Equal(t, "275", snap[0].Y)
}

func TestSessionCommentSequence(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")

	err := a.Handle(context.Background(), &Command{Kind: CommandComment, Comment: Comment{Text: "hi"}})
	requireCoreError(t, err, ErrCodeNotInRoom)

	enter(t, a, "/r", "alice")
	drain(ca)

	for range 2 {
		require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandComment, Comment: Comment{Text: "hi"}}))
	}
	events := drain(ca)
	require.Len(t, events, 2)
	require.Equal(t, 0, events[0].Comment.Seq)
	require.Equal(t, 1, events[1].Comment.Seq)

	enter(t, a, "/r", "alice")
	drain(ca)
	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandComment, Comment: Comment{Text: "again"}}))
	events = drain(ca)
	require.Len(t, events, 1)
	require.Equal(t, 0, events[0].Comment.Seq)
}

func TestSessionCommentRateLimit(t *testing.T) {
	hub := newTestHub(HubConfig{CommentRateLimit: 1})
	a, ca := connect(t, hub, "10.0.0.1")
	enter(t, a, "/r", "alice")
	drain(ca)

	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandComment, Comment: Comment{Text: "one"}}))
	err := a.Handle(context.Background(), &Command{Kind: CommandComment, Comment: Comment{Text: "two"}})
	requireCoreError(t, err, ErrCodeRateLimited)
	require.Len(t, drain(ca), 1)
}

func TestSessionResetAndIgnoreBroadcast(t *testing.T) {
	hub := newTestHub(HubConfig{})
	a, ca := connect(t, hub, "10.0.0.1")
	b, cb := connect(t, hub, "10.0.0.2")
	enter(t, a, "/r", "alice")
	enter(t, b, "/r", "bob")
	drain(ca)
	drain(cb)

	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandReset, Set: SetPatch{Kind: SetCommand, Cmd: "dance"}}))
	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandIgnore, Ignore: Ignore{IHash: "d:10.0.0.2", Stat: "on"}}))

	for _, c := range []*Client{ca, cb} {
		events := drain(c)
		require.Equal(t, []EventKind{EventReset, EventIgnore}, kinds(events))
		require.Equal(t, 1, events[0].ID)
		require.Equal(t, "dance", events[0].Set.Cmd)
		require.Equal(t, "on", events[1].Ignore.Stat)
	}
}

type recordingJournal struct {
	kinds []string
}

func (j *recordingJournal) RecordPresence(_ context.Context, ev store.PresenceEvent) error {
	j.kinds = append(j.kinds, string(ev.Kind))
	return nil
}

func TestSessionJournal(t *testing.T) {
	journal := &recordingJournal{}
	hub := NewHub(prefixDigester{}, journal, HubConfig{}, nil)

	a, _ := connect(t, hub, "10.0.0.1")
	enter(t, a, "/r", "alice")
	require.NoError(t, a.Handle(context.Background(), &Command{Kind: CommandExit}))
	a.Close(context.Background())

	require.Equal(t, []string{"connect", "enter", "exit", "disconnect"}, journal.kinds)
}
