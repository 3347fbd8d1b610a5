package protocol

type Welcome struct {
	SessionID string `json:"sessionId"`
	RoomID    string `json:"roomId"`
	RoomCode  string `json:"roomCode"`
	TickHz    int    `json:"tickHz"`
}

type GameOptions struct {
	Colors     []string `json:"colors"`
	DucksCount int      `json:"ducksCount"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

const (
	ErrCodeRoomFull     = "room_full"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeJoinFailed   = "join_failed"
)

// LookupResponse answers GET /room/{code}.
type LookupResponse struct {
	RoomID *string `json:"roomId"`
	Exists bool    `json:"exists"`
}
