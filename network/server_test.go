package network

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"volley/protocol"
	"volley/room"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	m := room.NewManager(log)
	ts := httptest.NewServer(NewServer(m, log, nil).Routes())
	t.Cleanup(func() {
		ts.Close()
		m.Shutdown()
	})
	return ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readKind(t *testing.T, conn *websocket.Conn, kind string, timeout time.Duration) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", kind)
		env, err := protocol.DecodeEnvelope(data)
		require.NoError(t, err)
		if env.T == kind {
			return env
		}
	}
}

func TestConnectWithoutRoomMintsPrivateRoom(t *testing.T) {
	ts := newTestServer(t)

	connA := dial(t, wsURL(ts, "/ws"))
	env := readKind(t, connA, protocol.MsgJoined, time.Second)
	joined, err := protocol.DecodePayload[protocol.Joined](env)
	require.NoError(t, err)
	require.Len(t, joined.RoomID, 6)
	require.Equal(t, 1, joined.Slot)
	require.True(t, joined.IsHost)

	// Second endpoint joins the generated id and fills the room.
	connB := dial(t, wsURL(ts, "/ws?room="+joined.RoomID))
	envB := readKind(t, connB, protocol.MsgJoined, time.Second)
	joinedB, err := protocol.DecodePayload[protocol.Joined](envB)
	require.NoError(t, err)
	require.Equal(t, 2, joinedB.Slot)
	require.False(t, joinedB.IsHost)

	readKind(t, connA, protocol.MsgPeerJoined, time.Second)
	readKind(t, connB, protocol.MsgPeerJoined, time.Second)

	// State broadcasts begin for everyone.
	stateEnv := readKind(t, connA, protocol.MsgGameState, time.Second)
	st, err := protocol.DecodePayload[protocol.GameState](stateEnv)
	require.NoError(t, err)
	require.Equal(t, 800, st.Width)
	require.Equal(t, 600, st.Height)
	readKind(t, connB, protocol.MsgGameState, time.Second)

	// Third endpoint becomes a spectator but still receives state.
	connC := dial(t, wsURL(ts, "/ws?room="+joined.RoomID))
	envC := readKind(t, connC, protocol.MsgJoined, time.Second)
	joinedC, err := protocol.DecodePayload[protocol.Joined](envC)
	require.NoError(t, err)
	require.True(t, joinedC.Spectator)
	require.Equal(t, 0, joinedC.Slot)
	readKind(t, connC, protocol.MsgGameState, time.Second)
}

func TestMalformedInputIsAbsorbed(t *testing.T) {
	ts := newTestServer(t)

	connA := dial(t, wsURL(ts, "/ws"))
	env := readKind(t, connA, protocol.MsgJoined, time.Second)
	joined, err := protocol.DecodePayload[protocol.Joined](env)
	require.NoError(t, err)
	connB := dial(t, wsURL(ts, "/ws?room="+joined.RoomID))

	// Garbage, unknown kinds, and bad directions all disappear silently.
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte("not json")))
	bad, _ := protocol.Encode("teleport", protocol.PaddleMove{Direction: "up", Pressed: true})
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, bad))
	sideways, _ := protocol.Encode(protocol.MsgPaddleMove, protocol.PaddleMove{Direction: "left", Pressed: true})
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, sideways))

	// The connection survives and the match keeps ticking.
	readKind(t, connA, protocol.MsgGameState, time.Second)
	readKind(t, connB, protocol.MsgGameState, time.Second)
}

func TestPeerLeftOnDisconnect(t *testing.T) {
	ts := newTestServer(t)

	connA := dial(t, wsURL(ts, "/ws"))
	env := readKind(t, connA, protocol.MsgJoined, time.Second)
	joined, err := protocol.DecodePayload[protocol.Joined](env)
	require.NoError(t, err)
	connB := dial(t, wsURL(ts, "/ws?room="+joined.RoomID))
	readKind(t, connB, protocol.MsgJoined, time.Second)

	require.NoError(t, connB.Close())
	readKind(t, connA, protocol.MsgPeerLeft, 2*time.Second)
}

func TestRoomListAndHealth(t *testing.T) {
	ts := newTestServer(t)

	connA := dial(t, wsURL(ts, "/ws"))
	readKind(t, connA, protocol.MsgJoined, time.Second)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	var rooms []room.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	require.Equal(t, 1, rooms[0].Clients)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}
