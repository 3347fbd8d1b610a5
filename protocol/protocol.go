package protocol

// Message discriminants. "options" travels both ways: clients request a
// change, the room mirrors accepted changes to everybody.
const (
	MsgInput    = "input"
	MsgNickname = "nickname"
	MsgPhase    = "phase"
	MsgOptions  = "options"
	MsgResync   = "resync"

	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgError   = "error"
)

const (
	SimTickHz     = 60
	ClientInputHz = 60
	BroadcastHz   = 20
)

// Envelope is a decoded frame whose payload has not been decoded yet.
type Envelope struct {
	T string
	P []byte

	codec Codec
}
