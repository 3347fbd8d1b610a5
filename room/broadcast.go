package room

import (
	"github.com/dustin/go-humanize"

	"quack/protocol"
)

func (r *Room) snapshot(version uint64) protocol.Snapshot {
	s := protocol.NewSnapshot()
	s.Version = version
	s.Phase = string(r.state.Phase)
	s.StartedAt = r.state.StartedAt
	s.FinalTime = r.state.FinalTime
	opts := r.state.Options.Clone()
	s.Options = protocol.GameOptions{Colors: opts.Colors, DucksCount: opts.DucksCount}
	for id, p := range r.state.Players {
		s.Players[id] = protocol.PlayerState{ID: id, Nickname: p.Nickname, X: p.Pos.X, Y: p.Pos.Y}
	}
	for id, d := range r.state.Ducks {
		key := id.String()
		s.Ducks[key] = protocol.DuckState{
			ID:         key,
			X:          d.Pos.X,
			Y:          d.Pos.Y,
			VX:         d.Vel.X,
			VY:         d.Vel.Y,
			Color:      d.Color,
			PanicUntil: d.PanicUntil,
		}
	}
	return s
}

// broadcast sends everything that changed since the last broadcast. Frames
// are encoded once per codec in use.
func (r *Room) broadcast() {
	next := r.snapshot(r.lastSent.Version + 1)
	patch := protocol.Diff(r.lastSent, next)
	if patch.Empty() {
		return
	}
	r.lastSent = next

	frames := make(map[string][]byte, 2)
	var failed []string
	for id, c := range r.clients {
		codec := c.Codec()
		b, ok := frames[codec.Name()]
		if !ok {
			var err error
			b, err = codec.Encode(protocol.MsgState, patch)
			if err != nil {
				r.log.Printf("encode state v%d (%s): %v", patch.Version, codec.Name(), err)
				return
			}
			frames[codec.Name()] = b
			if r.opts.Debug {
				r.log.Printf("state v%d %s: %s", patch.Version, codec.Name(), humanize.Bytes(uint64(len(b))))
			}
		}
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	r.dropFailed(failed)
}

// sendFull brings a single client to the last broadcast snapshot.
func (r *Room) sendFull(id string, c Conn) {
	b, err := c.Codec().Encode(protocol.MsgState, protocol.FullPatch(r.lastSent))
	if err != nil {
		r.log.Printf("encode full state: %v", err)
		return
	}
	if r.opts.Debug {
		r.log.Printf("full state v%d to %s: %s", r.lastSent.Version, id, humanize.Bytes(uint64(len(b))))
	}
	if err := c.Send(b); err != nil {
		r.dropFailed([]string{id})
	}
}

func (r *Room) sendAll(t string, payload any) {
	var failed []string
	for id, c := range r.clients {
		b, err := c.Codec().Encode(t, payload)
		if err != nil {
			r.log.Printf("encode %s: %v", t, err)
			return
		}
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	r.dropFailed(failed)
}

func (r *Room) dropFailed(ids []string) {
	for _, id := range ids {
		r.log.Printf("dropping client %s: send failed", id)
		r.dropClient(id)
	}
	if len(ids) > 0 && len(r.clients) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}
