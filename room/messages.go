package room

import (
	"quack/game"
	"quack/protocol"
)

// Conn is the room's view of a client connection. Send must not block; a
// connection that cannot keep up returns an error and is dropped.
type Conn interface {
	Codec() protocol.Codec
	Send([]byte) error
	Close() error
}

// Join: issued once per connection
type Join struct {
	Conn     Conn
	Nickname string
	Reply    chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
	Err      error
}

// Input: raw velocity sample, sanitized on the next tick
type Input struct {
	PlayerID string
	Input    game.Input
}

// Leave: issued on disconnect
type Leave struct {
	PlayerID string
}

type SetNickname struct {
	PlayerID string
	Nickname string
}

type SetPhase struct {
	PlayerID string
	Phase    string
}

type SetOptions struct {
	PlayerID string
	Update   game.OptionsUpdate
}

// Resync: client lost track of the patch stream and wants a full snapshot
type Resync struct {
	PlayerID string
}
