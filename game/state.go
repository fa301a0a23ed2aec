package game

import "math/rand/v2"

// Internal truth: authoritative match state for one room.

type State struct {
	Tick    int
	Ball    Ball
	Paddles [2]Paddle
	Score   [2]int
	Over    bool
	Winner  int // 1 or 2 once Over
}

type Ball struct {
	X, Y   float64
	VX, VY float64
}

type Paddle struct {
	Y float64 // top edge offset, clamped to [0, CourtHeight-PaddleHeight]
}

// Input is the buffered movement intent for a single player. It is set by
// the latest paddleMove message and consumed on the next tick.
type Input struct {
	Up   bool
	Down bool
}

// randFloat is swapped out by tests for deterministic serves.
var randFloat = rand.Float64

// NewState returns a fresh match: paddles centered, score zeroed, ball
// served from center in a random horizontal direction.
func NewState() *State {
	s := &State{}
	s.ResetMatch()
	return s
}

// ResetMatch re-arms a match in place. Called at construction and when
// room-level logic explicitly restarts a finished match.
func (s *State) ResetMatch() {
	*s = State{}
	for i := range s.Paddles {
		s.Paddles[i].Y = (CourtHeight - PaddleHeight) / 2
	}
	dir := 1
	if randFloat() < 0.5 {
		dir = -1
	}
	s.serve(dir)
}

// serve recenters the ball and launches it toward the given horizontal
// direction (-1 left, +1 right) with a randomized vertical component.
func (s *State) serve(dir int) {
	s.Ball = Ball{
		X:  CourtWidth / 2,
		Y:  CourtHeight / 2,
		VX: float64(dir) * BaseServeSpeed,
		VY: (randFloat()*2 - 1) * ServeMaxVY,
	}
}
