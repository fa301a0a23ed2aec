package game

// Result reports what a single tick produced beyond plain movement.
type Result struct {
	PointTo int // 1 or 2 when a point was scored this tick, else 0
	Winner  int // 1 or 2 when the match ended this tick, else 0
}

// Step advances the match by one fixed tick: paddle integration, ball
// integration, wall bounce, paddle bounce, scoring, win check. Once the
// match is over it leaves the state untouched.
func Step(s *State, inputs [2]Input) Result {
	if s.Over {
		return Result{}
	}
	s.Tick++

	for i := range s.Paddles {
		p := &s.Paddles[i]
		if inputs[i].Up {
			p.Y -= PaddleSpeedPerTick
		}
		if inputs[i].Down {
			p.Y += PaddleSpeedPerTick
		}
		if p.Y < 0 {
			p.Y = 0
		}
		if p.Y > CourtHeight-PaddleHeight {
			p.Y = CourtHeight - PaddleHeight
		}
	}

	b := &s.Ball
	b.X += b.VX
	b.Y += b.VY

	// Walls are perfectly elastic.
	if b.Y-BallRadius < 0 {
		b.Y = BallRadius
		b.VY = -b.VY
	}
	if b.Y+BallRadius > CourtHeight {
		b.Y = CourtHeight - BallRadius
		b.VY = -b.VY
	}

	// Paddle hits snap the ball just outside the collision plane, speed it
	// up a little, and angle the return by where it struck the paddle.
	if b.VX < 0 && b.X-BallRadius <= PaddleMargin && onPaddle(b.Y, s.Paddles[0].Y) {
		b.X = PaddleMargin + BallRadius
		b.VX = -b.VX * SpeedUpFactor
		b.VY = bounceVY(b.Y, s.Paddles[0].Y)
	}
	if b.VX > 0 && b.X+BallRadius >= CourtWidth-PaddleMargin && onPaddle(b.Y, s.Paddles[1].Y) {
		b.X = CourtWidth - PaddleMargin - BallRadius
		b.VX = -b.VX * SpeedUpFactor
		b.VY = bounceVY(b.Y, s.Paddles[1].Y)
	}

	var res Result
	switch {
	case b.X < 0:
		s.Score[1]++
		res.PointTo = 2
		s.serve(-1) // toward the player who conceded
	case b.X > CourtWidth:
		s.Score[0]++
		res.PointTo = 1
		s.serve(1)
	}

	for i, sc := range s.Score {
		if sc >= WinScore {
			s.Over = true
			s.Winner = i + 1
			res.Winner = i + 1
		}
	}
	return res
}

func onPaddle(ballY, paddleY float64) bool {
	return ballY+BallRadius >= paddleY && ballY-BallRadius <= paddleY+PaddleHeight
}

// bounceVY maps the hit offset from paddle center, normalized to [-1, 1],
// onto the outgoing vertical speed.
func bounceVY(ballY, paddleY float64) float64 {
	rel := (ballY - (paddleY + PaddleHeight/2)) / (PaddleHeight / 2)
	return rel * BounceSpeed
}
