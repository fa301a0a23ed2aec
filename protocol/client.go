package protocol

// Input structs coming in from the client.

const (
	DirUp   = "up"
	DirDown = "down"
)

// PaddleMove sets or clears the sender's movement intent. Only clients
// holding a player slot may move a paddle; anything else is dropped.
type PaddleMove struct {
	Direction string `json:"direction"` // "up" or "down"
	Pressed   bool   `json:"pressed"`
}
