package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// prefixDigester makes digests readable in assertions.
type prefixDigester struct{}

func (prefixDigester) Digest(secret string) string {
	return "d:" + secret
}

func newTestHub(cfg HubConfig) *Hub {
	return NewHub(prefixDigester{}, nil, cfg, nil)
}

// connect opens a session for host and completes the handshake, discarding
// the CONNECT acknowledgements.
func connect(t *testing.T, hub *Hub, host string) (*Session, *Client) {
	t.Helper()

	client := NewClient("conn-"+host, host, 64)
	session := hub.NewSession(client, host)
	require.NoError(t, session.Handle(context.Background(), &Command{Kind: CommandHandshake}))
	require.Len(t, drain(client), 2)
	return session, client
}

func enter(t *testing.T, s *Session, room, name string) {
	t.Helper()
	require.NoError(t, s.Handle(context.Background(), &Command{
		Kind:     CommandEnter,
		Room:     room,
		Occupant: Occupant{Name: name},
	}))
}

// drain returns every event currently queued for c without blocking.
func drain(c *Client) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func kinds(events []*Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func requireCoreError(t *testing.T, err error, code string) {
	t.Helper()

	var coreErr *CoreError
	require.ErrorAs(t, err, &coreErr, fmt.Sprintf("want %s", code))
	require.Equal(t, code, coreErr.Code)
}
