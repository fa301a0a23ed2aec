package protocol

// Joined acknowledges an accepted connection. Slot 0 means spectator.
type Joined struct {
	RoomID    string `json:"roomId"`
	Slot      int    `json:"slot"`
	IsHost    bool   `json:"isHost"`
	Spectator bool   `json:"spectator,omitempty"`
}

type PeerJoined struct {
	RoomID string `json:"roomId"`
}

type PeerLeft struct {
	RoomID string `json:"roomId"`
}

// BallWire is the ball in wire form. Positions and velocities are rounded
// to the nearest integer for transmission economy.
type BallWire struct {
	X  int `json:"x"`
	Y  int `json:"y"`
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Pair holds a per-player value, keyed by slot number.
type Pair struct {
	P1 int `json:"1"`
	P2 int `json:"2"`
}

// GameState is the per-tick snapshot fanned out to every endpoint.
type GameState struct {
	Ball    BallWire `json:"ball"`
	Paddles Pair     `json:"paddles"`
	Score   Pair     `json:"score"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
}

// GameOver carries the winner and the final snapshot.
type GameOver struct {
	Winner int       `json:"winner"`
	State  GameState `json:"state"`
}
