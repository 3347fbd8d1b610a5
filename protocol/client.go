package protocol

// Payloads sent by clients.

// JoinOptions are passed at connect time as query parameters.
type JoinOptions struct {
	Nickname string `json:"nickname,omitempty"`
	RoomCode string `json:"roomCode,omitempty"`
}

type Input struct {
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// SetGameOptions is a partial update; absent fields are left alone. The
// fields are loosely typed so that one malformed field does not spoil the
// other; use Fields to read them.
type SetGameOptions struct {
	Colors     any `json:"colors,omitempty"`
	DucksCount any `json:"ducksCount,omitempty"`
}

// Fields returns the colors and duck count carried by o. A field that is
// absent or has the wrong shape comes back nil.
func (o SetGameOptions) Fields() ([]string, *float64) {
	return stringList(o.Colors), number(o.DucksCount)
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

func number(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

// Nickname and phase requests carry a bare string payload.
type (
	SetNickname = string
	SetPhase    = string
)

// Resync asks the room for a full snapshot. Have is the version the client
// holds, for logging only.
type Resync struct {
	Have uint64 `json:"have"`
}
