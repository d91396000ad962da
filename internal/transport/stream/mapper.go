package stream

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vovakirdan/mojachat-server/internal/core"
	"github.com/vovakirdan/mojachat-server/internal/proto"
)

var (
	errUnknownElement = errors.New("unknown element")
	errEmptySet       = errors.New("SET without attributes")
)

func frameToCommand(el *proto.Element) (*core.Command, error) {
	switch el.Name {
	case proto.TagHandshake:
		return &core.Command{Kind: core.CommandHandshake}, nil
	case proto.TagPolicy:
		return &core.Command{Kind: core.CommandPolicy}, nil
	case proto.TagNop:
		return &core.Command{Kind: core.CommandNop}, nil
	case proto.TagExit:
		return &core.Command{Kind: core.CommandExit}, nil
	case proto.TagEnter:
		return enterCommand(el), nil
	case proto.TagSet:
		patch, err := setPatch(el)
		if err != nil {
			return nil, err
		}
		return &core.Command{Kind: core.CommandSet, Set: patch}, nil
	case proto.TagReset:
		return &core.Command{
			Kind: core.CommandReset,
			Set: core.SetPatch{
				Kind:  core.SetCommand,
				Cmd:   el.Value("cmd"),
				Param: el.Value("param"),
			},
		}, nil
	case proto.TagComment:
		return &core.Command{
			Kind:    core.CommandComment,
			Comment: core.Comment{Text: el.Value("cmt"), Style: el.Value("style")},
		}, nil
	case proto.TagIgnore:
		return &core.Command{
			Kind:   core.CommandIgnore,
			Ignore: core.Ignore{IHash: el.Value("ihash"), Stat: el.Value("stat")},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownElement, el.Name)
	}
}

func enterCommand(el *proto.Element) *core.Command {
	// A malformed or negative umax means no limit.
	capacity, err := strconv.Atoi(el.Value("umax"))
	if err != nil || capacity < 0 {
		capacity = 0
	}

	return &core.Command{
		Kind:       core.CommandEnter,
		Room:       el.Value("room"),
		Capacity:   capacity,
		TripSecret: el.Value("trip"),
		Occupant: core.Occupant{
			Name:      el.Value("name"),
			Stat:      el.Value("stat"),
			Type:      el.Value("type"),
			R:         el.Value("r"),
			G:         el.Value("g"),
			B:         el.Value("b"),
			X:         el.Value("x"),
			Y:         el.Value("y"),
			Scl:       el.Value("scl"),
			Cmd:       el.Value("cmd"),
			Pre:       el.Value("pre"),
			Param:     el.Value("param"),
			Anonymous: el.Value("attrib") == "no",
		},
	}
}

// setPatch picks the attribute group of a SET. Position wins over status, status over command.
func setPatch(el *proto.Element) (core.SetPatch, error) {
	switch {
	case el.Has("x") || el.Has("y") || el.Has("scl"):
		return core.SetPatch{
			Kind: core.SetPosition,
			X:    el.Value("x"),
			Y:    el.Value("y"),
			Scl:  el.Value("scl"),
		}, nil
	case el.Has("stat"):
		return core.SetPatch{Kind: core.SetStatus, Stat: el.Value("stat")}, nil
	case el.Has("cmd"):
		return core.SetPatch{
			Kind:  core.SetCommand,
			Cmd:   el.Value("cmd"),
			Pre:   el.Value("pre"),
			Param: el.Value("param"),
		}, nil
	default:
		return core.SetPatch{}, errEmptySet
	}
}

// eventPayload renders an event into one frame payload (without terminator).
func eventPayload(ev *core.Event) ([]byte, error) {
	switch ev.Kind {
	case core.EventConnectLine:
		return []byte("+connect id=" + strconv.Itoa(ev.ID)), nil
	case core.EventPolicy:
		return []byte(ev.Text), nil
	}
	el, err := eventElement(ev)
	if err != nil {
		return nil, err
	}
	return el.MarshalText()
}

func eventElement(ev *core.Event) (*proto.Element, error) {
	id := strconv.Itoa(ev.ID)

	switch ev.Kind {
	case core.EventConnect:
		return proto.NewElement(proto.TagConnect).Add("id", id), nil
	case core.EventRoom:
		room := proto.NewElement(proto.TagRoom)
		for i := range ev.Occupants {
			room.Append(userElement(&ev.Occupants[i]))
		}
		return room, nil
	case core.EventUserInfo:
		if ev.Occupant == nil {
			return nil, fmt.Errorf("%s event without occupant", ev.Kind)
		}
		return proto.NewElement(proto.TagUserInfo).
			AddNonEmpty("name", ev.Occupant.Name).
			AddNonEmpty("trip", ev.Occupant.Trip).
			Add("id", id), nil
	case core.EventEnter:
		if ev.Occupant == nil {
			return nil, fmt.Errorf("%s event without occupant", ev.Kind)
		}
		return enterElement(ev.Occupant), nil
	case core.EventEnterAnonymous:
		return proto.NewElement(proto.TagEnter).Add("id", id), nil
	case core.EventExit:
		return proto.NewElement(proto.TagExit).Add("id", id), nil
	case core.EventCount:
		count := proto.NewElement(proto.TagCount)
		if ev.Total != nil {
			count.Add("c", strconv.Itoa(ev.Total.Count)).Add("n", ev.Total.Name)
		}
		for _, rc := range ev.Rooms {
			count.Append(proto.NewElement(proto.TagRoom).
				Add("c", strconv.Itoa(rc.Count)).
				Add("n", rc.Name))
		}
		return count, nil
	case core.EventFull:
		return proto.NewElement(proto.TagFull), nil
	case core.EventSet:
		if ev.Set == nil {
			return nil, fmt.Errorf("%s event without patch", ev.Kind)
		}
		return setElement(ev.Set, id), nil
	case core.EventReset:
		if ev.Set == nil {
			return nil, fmt.Errorf("%s event without patch", ev.Kind)
		}
		return proto.NewElement(proto.TagReset).
			Add("cmd", ev.Set.Cmd).
			AddNonEmpty("param", ev.Set.Param).
			Add("id", id), nil
	case core.EventComment:
		if ev.Comment == nil {
			return nil, fmt.Errorf("%s event without comment", ev.Kind)
		}
		return proto.NewElement(proto.TagComment).
			Add("cmt", ev.Comment.Text).
			Add("cnt", strconv.Itoa(ev.Comment.Seq)).
			AddNonEmpty("style", ev.Comment.Style).
			Add("id", id), nil
	case core.EventIgnore:
		if ev.Ignore == nil {
			return nil, fmt.Errorf("%s event without payload", ev.Kind)
		}
		return proto.NewElement(proto.TagIgnore).
			Add("ihash", ev.Ignore.IHash).
			Add("stat", ev.Ignore.Stat).
			Add("id", id), nil
	default:
		return nil, fmt.Errorf("unsupported event kind %s", ev.Kind)
	}
}

func userElement(o *core.Occupant) *proto.Element {
	return proto.NewElement(proto.TagUser).
		AddNonEmpty("r", o.R).
		AddNonEmpty("name", o.Name).
		Add("id", strconv.Itoa(o.ID)).
		AddNonEmpty("trip", o.Trip).
		AddNonEmpty("ihash", o.IHash).
		AddNonEmpty("stat", o.Stat).
		AddNonEmpty("g", o.G).
		AddNonEmpty("type", o.Type).
		AddNonEmpty("b", o.B).
		AddNonEmpty("y", o.Y).
		AddNonEmpty("x", o.X).
		AddNonEmpty("scl", o.Scl)
}

func enterElement(o *core.Occupant) *proto.Element {
	return proto.NewElement(proto.TagEnter).
		AddNonEmpty("r", o.R).
		AddNonEmpty("name", o.Name).
		AddNonEmpty("trip", o.Trip).
		Add("id", strconv.Itoa(o.ID)).
		AddNonEmpty("cmd", o.Cmd).
		AddNonEmpty("param", o.Param).
		AddNonEmpty("ihash", o.IHash).
		AddNonEmpty("pre", o.Pre).
		AddNonEmpty("stat", o.Stat).
		AddNonEmpty("g", o.G).
		AddNonEmpty("type", o.Type).
		AddNonEmpty("b", o.B).
		AddNonEmpty("y", o.Y).
		AddNonEmpty("x", o.X).
		AddNonEmpty("scl", o.Scl)
}

func setElement(p *core.SetPatch, id string) *proto.Element {
	el := proto.NewElement(proto.TagSet)
	switch p.Kind {
	case core.SetPosition:
		el.AddNonEmpty("x", p.X).AddNonEmpty("scl", p.Scl).Add("id", id).AddNonEmpty("y", p.Y)
	case core.SetStatus:
		el.Add("stat", p.Stat).Add("id", id)
	case core.SetCommand:
		el.Add("cmd", p.Cmd).AddNonEmpty("pre", p.Pre).AddNonEmpty("param", p.Param).Add("id", id)
	}
	return el
}
