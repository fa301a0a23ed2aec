package network

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"volley/auth"
	"volley/metrics"
	"volley/protocol"
	"volley/room"
)

// Server binds websocket endpoints to rooms and serves the small HTTP
// surface around them.
type Server struct {
	manager  *room.Manager
	log      *logrus.Logger
	verifier *auth.Verifier // nil disables identity annotation
	upgrader websocket.Upgrader
}

func NewServer(m *room.Manager, log *logrus.Logger, verifier *auth.Verifier) *Server {
	return &Server{
		manager:  m,
		log:      log,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			// For dev, allow all origins. Lock this down in prod.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /rooms", s.listRooms)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// serveWS upgrades the connection and hands it to a room. Omitting the room
// code mints a fresh private room.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		code = s.manager.CreateRoom()
	}
	rm := s.manager.GetOrCreateRoom(code)
	subject := s.subject(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("upgrade")
		return
	}

	c := newWSClient(conn)
	go c.writePump()

	id := uuid.NewString()
	reply := make(chan room.JoinResult, 1)
	rm.Inbox <- room.Join{ID: id, Conn: c, Subject: subject, Reply: reply}

	// The room may stop between the registry lookup and the Join landing
	// in its inbox; watch Done so the handler never waits on a reply that
	// will not come.
	var res room.JoinResult
	select {
	case res = <-reply:
	case <-rm.Done():
	}
	if res.ClientID == "" {
		s.log.WithFields(logrus.Fields{"room": code, "client": id}).Info("room closed before join")
		_ = c.Close()
		return
	}

	metrics.ConnectedClients.Inc()
	defer metrics.ConnectedClients.Dec()
	s.log.WithFields(logrus.Fields{
		"room":      code,
		"client":    id,
		"slot":      res.Slot,
		"spectator": res.Spectator,
		"subject":   subject,
	}).Info("websocket connected")

	s.readPump(rm, id, c)

	rm.Inbox <- room.Leave{ClientID: id}
	_ = c.Close()
}

// readPump decodes inbound envelopes into room commands until the
// connection drops. Malformed or unrecognized messages are dropped without
// a response.
func (s *Server) readPump(rm *room.Room, id string, c *wsClient) {
	conn := c.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).WithField("client", id).Debug("read")
			}
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			continue
		}
		switch env.T {
		case protocol.MsgPaddleMove:
			mv, err := protocol.DecodePayload[protocol.PaddleMove](env)
			if err != nil {
				continue
			}
			if mv.Direction != protocol.DirUp && mv.Direction != protocol.DirDown {
				continue
			}
			rm.Inbox <- room.PaddleInput{ClientID: id, Direction: mv.Direction, Pressed: mv.Pressed}
		case protocol.MsgResetMatch:
			rm.Inbox <- room.ResetMatch{ClientID: id}
		default:
			s.log.WithField("kind", env.T).Debug("unknown message kind")
		}
	}
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.manager.ListRooms())
}

// subject resolves the optional bearer credential to a stable subject id.
// Any failure just means anonymous.
func (s *Server) subject(r *http.Request) string {
	if s.verifier == nil {
		return ""
	}
	tok := r.URL.Query().Get("token")
	if tok == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tok = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if tok == "" {
		return ""
	}
	sub, err := s.verifier.Verify(tok)
	if err != nil {
		s.log.WithError(err).Debug("token verify")
		return ""
	}
	return sub
}
