package game

const (
	CourtWidth  = 800.0
	CourtHeight = 600.0

	PaddleHeight       = 100.0
	PaddleMargin       = 30.0 // collision plane offset from the court edge
	PaddleSpeedPerTick = 6.0

	BallRadius     = 8.0
	BaseServeSpeed = 5.0
	ServeMaxVY     = 2.5  // randomized vertical component on serve
	SpeedUpFactor  = 1.03 // horizontal speedup per paddle hit
	BounceSpeed    = 5.0  // vertical speed at the paddle's edge

	WinScore = 5
)
