package room

// Conn is the capability a room needs from a connected endpoint. The
// websocket layer and test doubles both satisfy it. Alive lets the room
// sweep endpoints that dropped without a clean Leave.
type Conn interface {
	Send([]byte) error
	Close() error
	Alive() bool
}

// Join: issued once per connection after the transport handshake.
type Join struct {
	ID      string
	Conn    Conn
	Subject string // identity annotation, empty for anonymous
	Reply   chan<- JoinResult
}

type JoinResult struct {
	ClientID  string
	Slot      int // 1 or 2, 0 for spectators
	Host      bool
	Spectator bool
}

// PaddleInput: latest movement intent for a client.
type PaddleInput struct {
	ClientID  string
	Direction string // protocol.DirUp or protocol.DirDown
	Pressed   bool
}

// ResetMatch: host request to re-arm a finished match.
type ResetMatch struct {
	ClientID string
}

// Leave: issued on disconnect.
type Leave struct {
	ClientID string
}
