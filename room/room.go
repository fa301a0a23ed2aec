package room

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"volley/game"
	"volley/metrics"
	"volley/protocol"
)

// Status is the lifecycle state of a room.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusWaiting Status = "waiting" // one player, waiting for an opponent
	StatusActive  Status = "active"  // both slots filled, simulation running
	StatusClosed  Status = "closed"
)

type client struct {
	id      string
	conn    Conn
	slot    int // 1 or 2, 0 for spectators
	subject string
}

// Room owns one match simulation and the endpoints watching it. All state
// is confined to the Run goroutine; the outside world talks to a room only
// through its Inbox. The ticker fires for the room's whole lifetime, but
// physics advances only while both slots are filled and the match is not
// over, so repeated joins can never start a second simulation.
type Room struct {
	Inbox chan any

	Code    string
	OnEmpty func(code string) // called when the last endpoint leaves

	log      *logrus.Entry
	state    *game.State
	inputs   [2]game.Input
	clients  map[string]*client
	slots    [2]*client
	status   Status
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	nclients atomic.Int32
}

// stepFn is swapped out by tests to exercise tick failure handling.
var stepFn = game.Step

func New(code string, log *logrus.Logger) *Room {
	return &Room{
		Inbox:   make(chan any, 256),
		Code:    code,
		log:     log.WithField("room", code),
		state:   game.NewState(),
		clients: make(map[string]*client),
		status:  StatusEmpty,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Stop forces the Closed transition. Safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned and the room will never answer
// another command. Callers waiting on a Join reply must also watch this.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// NumClients returns the current number of connected endpoints.
func (r *Room) NumClients() int {
	return int(r.nclients.Load())
}

func (r *Room) Run() {
	defer close(r.done)
	ticker := time.NewTicker(protocol.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.shutdown()
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		r.handleJoin(c)
	case PaddleInput:
		r.handleInput(c)
	case ResetMatch:
		r.handleReset(c)
	case Leave:
		r.handleLeave(c.ClientID)
	}
}

func (r *Room) handleJoin(j Join) {
	if r.status == StatusClosed {
		j.Reply <- JoinResult{}
		_ = j.Conn.Close()
		return
	}

	c := &client{id: j.ID, conn: j.Conn, subject: j.Subject}
	switch {
	case r.slots[0] == nil:
		c.slot = 1
	case r.slots[1] == nil:
		c.slot = 2
	}
	if c.slot > 0 {
		r.slots[c.slot-1] = c
		r.inputs[c.slot-1] = game.Input{}
	}
	r.clients[j.ID] = c
	r.nclients.Store(int32(len(r.clients)))

	j.Reply <- JoinResult{ClientID: j.ID, Slot: c.slot, Host: c.slot == 1, Spectator: c.slot == 0}
	r.sendTo(c, protocol.MsgJoined, protocol.Joined{
		RoomID:    r.Code,
		Slot:      c.slot,
		IsHost:    c.slot == 1,
		Spectator: c.slot == 0,
	})

	switch {
	case c.slot > 0 && r.slots[0] != nil && r.slots[1] != nil:
		// This join completed the pair; the simulation may run.
		r.status = StatusActive
		r.broadcast(protocol.MsgPeerJoined, protocol.PeerJoined{RoomID: r.Code})
	case c.slot > 0:
		r.status = StatusWaiting
	}

	r.log.WithFields(logrus.Fields{
		"client":  j.ID,
		"slot":    c.slot,
		"subject": j.Subject,
		"status":  r.status,
	}).Info("client joined")
}

func (r *Room) handleInput(in PaddleInput) {
	c, ok := r.clients[in.ClientID]
	if !ok || c.slot == 0 {
		return // spectators and unknown endpoints never move paddles
	}
	ip := &r.inputs[c.slot-1]
	switch in.Direction {
	case protocol.DirUp:
		ip.Up = in.Pressed
	case protocol.DirDown:
		ip.Down = in.Pressed
	}
}

func (r *Room) handleReset(rm ResetMatch) {
	c, ok := r.clients[rm.ClientID]
	if !ok || c.slot != 1 || !r.state.Over {
		return
	}
	r.state.ResetMatch()
	r.broadcast(protocol.MsgGameState, r.snapshot())
	r.log.Info("match reset by host")
}

func (r *Room) handleLeave(id string) {
	c, ok := r.clients[id]
	if !ok {
		return
	}
	delete(r.clients, id)
	if c.slot > 0 {
		r.slots[c.slot-1] = nil
		r.inputs[c.slot-1] = game.Input{}
	}
	_ = c.conn.Close()
	r.nclients.Store(int32(len(r.clients)))

	r.broadcast(protocol.MsgPeerLeft, protocol.PeerLeft{RoomID: r.Code})

	if r.status == StatusActive && (r.slots[0] == nil || r.slots[1] == nil) {
		// Simulation freezes; state is kept until a new opponent joins.
		r.status = StatusWaiting
	}
	if len(r.clients) == 0 {
		r.status = StatusEmpty
		if r.OnEmpty != nil && r.Code != "" {
			r.OnEmpty(r.Code)
		}
	}

	r.log.WithFields(logrus.Fields{"client": id, "slot": c.slot, "status": r.status}).Info("client left")
}

func (r *Room) tick() {
	if r.status != StatusActive || r.state.Over {
		return
	}
	prev := *r.state
	defer func() {
		if rec := recover(); rec != nil {
			*r.state = prev
			r.log.WithField("panic", rec).Warn("tick recovered, state rolled back")
		}
	}()

	res := stepFn(r.state, r.inputs)
	metrics.TicksTotal.Inc()

	snap := r.snapshot()
	r.broadcast(protocol.MsgGameState, snap)
	if res.Winner != 0 {
		r.broadcast(protocol.MsgGameOver, protocol.GameOver{Winner: res.Winner, State: snap})
		r.log.WithField("winner", res.Winner).Info("match over")
	}
}

func (r *Room) snapshot() protocol.GameState {
	s := r.state
	return protocol.GameState{
		Ball: protocol.BallWire{
			X:  int(math.Round(s.Ball.X)),
			Y:  int(math.Round(s.Ball.Y)),
			DX: int(math.Round(s.Ball.VX)),
			DY: int(math.Round(s.Ball.VY)),
		},
		Paddles: protocol.Pair{
			P1: int(math.Round(s.Paddles[0].Y)),
			P2: int(math.Round(s.Paddles[1].Y)),
		},
		Score:  protocol.Pair{P1: s.Score[0], P2: s.Score[1]},
		Width:  game.CourtWidth,
		Height: game.CourtHeight,
	}
}

// broadcast fans a message out to every endpoint, best effort. Endpoints
// that are no longer alive or whose Send fails are removed afterward so
// one dead connection cannot fail the tick for the rest of the room.
func (r *Room) broadcast(kind string, payload any) {
	b, err := protocol.Encode(kind, payload)
	if err != nil {
		r.log.WithError(err).Error("encode broadcast")
		return
	}

	var failed []string
	for id, c := range r.clients {
		if !c.conn.Alive() {
			failed = append(failed, id)
			continue
		}
		if err := c.conn.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.handleLeave(id)
	}
}

func (r *Room) sendTo(c *client, kind string, payload any) {
	b, err := protocol.Encode(kind, payload)
	if err != nil {
		return
	}
	_ = c.conn.Send(b)
}

func (r *Room) shutdown() {
	r.status = StatusClosed
	for id, c := range r.clients {
		_ = c.conn.Close()
		delete(r.clients, id)
	}
	r.slots = [2]*client{}
	r.nclients.Store(0)

	// Answer commands that were queued before the room stopped; a Join
	// left in the inbox would otherwise strand its sender on the reply.
	for {
		select {
		case cmd := <-r.Inbox:
			if j, ok := cmd.(Join); ok {
				j.Reply <- JoinResult{}
				_ = j.Conn.Close()
			}
		default:
			r.log.Info("room closed")
			return
		}
	}
}
