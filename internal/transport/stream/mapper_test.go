package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/mojachat-server/internal/core"
	"github.com/vovakirdan/mojachat-server/internal/proto"
)

func parseCommand(t *testing.T, frame string) (*core.Command, error) {
	t.Helper()
	el, err := proto.Parse([]byte(frame))
	require.NoError(t, err)
	return frameToCommand(el)
}

func TestFrameToCommand(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  *core.Command
	}{
		{
			name:  "handshake",
			frame: "MojaChat",
			want:  &core.Command{Kind: core.CommandHandshake},
		},
		{
			name:  "policy",
			frame: "<policy-file-request/>",
			want:  &core.Command{Kind: core.CommandPolicy},
		},
		{
			name:  "exit",
			frame: "<EXIT />",
			want:  &core.Command{Kind: core.CommandExit},
		},
		{
			name:  "nop",
			frame: "<NOP />",
			want:  &core.Command{Kind: core.CommandNop},
		},
		{
			name:  "enter",
			frame: `<ENTER room="/MONA8094/1" umax="20" type="giko" name="alice" trip="pw" x="100" y="275" r="100" g="40" b="60" scl="100" stat="normal" />`,
			want: &core.Command{
				Kind:       core.CommandEnter,
				Room:       "/MONA8094/1",
				Capacity:   20,
				TripSecret: "pw",
				Occupant: core.Occupant{
					Name: "alice", Type: "giko", Stat: "normal",
					R: "100", G: "40", B: "60",
					X: "100", Y: "275", Scl: "100",
				},
			},
		},
		{
			name:  "enter anonymous with bad umax",
			frame: `<ENTER room="/MONA8094" umax="lots" attrib="no" name="bob" />`,
			want: &core.Command{
				Kind:     core.CommandEnter,
				Room:     "/MONA8094",
				Occupant: core.Occupant{Name: "bob", Anonymous: true},
			},
		},
		{
			name:  "set position wins",
			frame: `<SET x="10" stat="away" />`,
			want:  &core.Command{Kind: core.CommandSet, Set: core.SetPatch{Kind: core.SetPosition, X: "10"}},
		},
		{
			name:  "set status",
			frame: `<SET stat="away" />`,
			want:  &core.Command{Kind: core.CommandSet, Set: core.SetPatch{Kind: core.SetStatus, Stat: "away"}},
		},
		{
			name:  "set command",
			frame: `<SET cmd="ev" pre="1" param="p" />`,
			want:  &core.Command{Kind: core.CommandSet, Set: core.SetPatch{Kind: core.SetCommand, Cmd: "ev", Pre: "1", Param: "p"}},
		},
		{
			name:  "reset",
			frame: `<RSET cmd="ev" param="p" />`,
			want:  &core.Command{Kind: core.CommandReset, Set: core.SetPatch{Kind: core.SetCommand, Cmd: "ev", Param: "p"}},
		},
		{
			name:  "comment",
			frame: `<COM cmt="hello &amp; bye" style="1" />`,
			want:  &core.Command{Kind: core.CommandComment, Comment: core.Comment{Text: "hello & bye", Style: "1"}},
		},
		{
			name:  "ignore",
			frame: `<IG ihash="abc" stat="on" />`,
			want:  &core.Command{Kind: core.CommandIgnore, Ignore: core.Ignore{IHash: "abc", Stat: "on"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand(t, tt.frame)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFrameToCommandRejects(t *testing.T) {
	_, err := parseCommand(t, `<HELLO />`)
	require.ErrorIs(t, err, errUnknownElement)

	_, err = parseCommand(t, `<SET />`)
	require.ErrorIs(t, err, errEmptySet)
}

func TestEventPayload(t *testing.T) {
	alice := &core.Occupant{
		ID: 1, Name: "alice", Trip: "tok", IHash: "ih", Stat: "normal", Type: "giko",
		R: "100", G: "40", B: "60", X: "10", Y: "20", Scl: "100",
	}

	tests := []struct {
		name string
		ev   *core.Event
		want string
	}{
		{
			name: "connect line",
			ev:   &core.Event{Kind: core.EventConnectLine, ID: 3},
			want: "+connect id=3",
		},
		{
			name: "connect",
			ev:   &core.Event{Kind: core.EventConnect, ID: 3},
			want: `<CONNECT id="3" />`,
		},
		{
			name: "empty room",
			ev:   &core.Event{Kind: core.EventRoom},
			want: `<ROOM />`,
		},
		{
			name: "room snapshot",
			ev:   &core.Event{Kind: core.EventRoom, Occupants: []core.Occupant{*alice}},
			want: `<ROOM><USER r="100" name="alice" id="1" trip="tok" ihash="ih" stat="normal" g="40" type="giko" b="60" y="20" x="10" scl="100" /></ROOM>`,
		},
		{
			name: "enter",
			ev:   &core.Event{Kind: core.EventEnter, ID: 1, Occupant: alice},
			want: `<ENTER r="100" name="alice" trip="tok" id="1" ihash="ih" stat="normal" g="40" type="giko" b="60" y="20" x="10" scl="100" />`,
		},
		{
			name: "enter anonymous",
			ev:   &core.Event{Kind: core.EventEnterAnonymous, ID: 4},
			want: `<ENTER id="4" />`,
		},
		{
			name: "uinfo",
			ev:   &core.Event{Kind: core.EventUserInfo, ID: 1, Occupant: alice},
			want: `<UINFO name="alice" trip="tok" id="1" />`,
		},
		{
			name: "exit",
			ev:   &core.Event{Kind: core.EventExit, ID: 2},
			want: `<EXIT id="2" />`,
		},
		{
			name: "count total",
			ev:   &core.Event{Kind: core.EventCount, Total: &core.RoomCount{Name: "1", Count: 2}},
			want: `<COUNT c="2" n="1" />`,
		},
		{
			name: "count children only",
			ev:   &core.Event{Kind: core.EventCount, Rooms: []core.RoomCount{{Name: "3", Count: 0}}},
			want: `<COUNT><ROOM c="0" n="3" /></COUNT>`,
		},
		{
			name: "full",
			ev:   &core.Event{Kind: core.EventFull},
			want: `<FULL />`,
		},
		{
			name: "set position",
			ev:   &core.Event{Kind: core.EventSet, ID: 1, Set: &core.SetPatch{Kind: core.SetPosition, X: "5", Y: "6", Scl: "-100"}},
			want: `<SET x="5" scl="-100" id="1" y="6" />`,
		},
		{
			name: "set status",
			ev:   &core.Event{Kind: core.EventSet, ID: 1, Set: &core.SetPatch{Kind: core.SetStatus, Stat: "away"}},
			want: `<SET stat="away" id="1" />`,
		},
		{
			name: "reset",
			ev:   &core.Event{Kind: core.EventReset, ID: 1, Set: &core.SetPatch{Kind: core.SetCommand, Cmd: "ev", Param: "p"}},
			want: `<RSET cmd="ev" param="p" id="1" />`,
		},
		{
			name: "comment",
			ev:   &core.Event{Kind: core.EventComment, ID: 1, Comment: &core.Comment{Text: "a<b", Seq: 0}},
			want: `<COM cmt="a&lt;b" cnt="0" id="1" />`,
		},
		{
			name: "ignore",
			ev:   &core.Event{Kind: core.EventIgnore, ID: 1, Ignore: &core.Ignore{IHash: "ih", Stat: "on"}},
			want: `<IG ihash="ih" stat="on" id="1" />`,
		},
		{
			name: "policy verbatim",
			ev:   &core.Event{Kind: core.EventPolicy, Text: "<cross-domain-policy />"},
			want: "<cross-domain-policy />",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eventPayload(tt.ev)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}

func TestEventPayloadMissingPayload(t *testing.T) {
	_, err := eventPayload(&core.Event{Kind: core.EventEnter, ID: 1})
	require.Error(t, err)
	_, err = eventPayload(&core.Event{Kind: core.EventComment, ID: 1})
	require.Error(t, err)
}
