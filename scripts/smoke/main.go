package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/mojachat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:9095", "TCP address, or ws://host/ws for the WebSocket bridge")
	name := flag.String("name", "tester", "display name to enter with")
	room := flag.String("room", "/MONA8094/1", "room path")
	text := flag.String("text", "hello from smoke test", "comment text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := dial(ctx, *addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	frames := []*proto.Element{
		proto.NewElement(proto.TagHandshake),
		proto.NewElement(proto.TagEnter).
			Add("room", *room).
			Add("name", *name).
			Add("x", "100").Add("y", "275").Add("scl", "100"),
		proto.NewElement(proto.TagComment).Add("cmt", *text),
	}
	for _, el := range frames {
		payload := []byte(proto.Handshake)
		if el.Name != proto.TagHandshake {
			if payload, err = el.MarshalText(); err != nil {
				return fmt.Errorf("marshal %s: %w", el.Name, err)
			}
		}
		if err := proto.WriteFrame(conn, payload); err != nil {
			return fmt.Errorf("send %s: %w", el.Name, err)
		}
	}

	reader := proto.NewFrameReader(conn, proto.DefaultMaxFrameBytes)
	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received: %s\n", frame)

		el, err := proto.Parse(frame)
		if err != nil {
			// "+connect id=N" is not markup
			continue
		}
		if el.Name == proto.TagFull {
			return errors.New("room is full")
		}
		if el.Name == proto.TagComment && el.Value("cmt") == *text {
			fmt.Printf("Comment echoed: id=%s cnt=%s\n", el.Value("id"), el.Value("cnt"))
			return nil
		}
	}
}

func dial(ctx context.Context, addr string) (net.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.Dial(ctx, addr, nil)
		if err != nil {
			return nil, err
		}
		return websocket.NetConn(context.Background(), ws, websocket.MessageText), nil
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
