package protocol

import (
	"encoding/json"
	"time"
)

// Inbound (client -> room) message kinds. paddleMove carries a PaddleMove
// payload; resetMatch carries none.
const (
	MsgPaddleMove = "paddleMove"
	MsgResetMatch = "resetMatch"
)

// Outbound (room -> client) message kinds.
const (
	MsgJoined     = "joined"
	MsgPeerJoined = "peerJoined"
	MsgPeerLeft   = "peerLeft"
	MsgGameState  = "gameState"
	MsgGameOver   = "gameOver"
)

const (
	TickHz       = 20
	TickInterval = time.Second / TickHz
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
