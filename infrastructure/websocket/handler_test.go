package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"heybuddy/domain"
	"heybuddy/errors"
	"heybuddy/idgen"
	"heybuddy/mocks"
	"heybuddy/repositories"
	"heybuddy/runtime"

	gorilla "github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type frame struct {
	Type    string          `json:"type"`
	ID      int64           `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

func testOptions() Options {
	return Options{
		BufferSize:     16,
		WriteTimeout:   time.Second,
		PongTimeout:    5 * time.Second,
		MaxMessageSize: 4096,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *runtime.Orchestrator) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	rooms := runtime.NewRoomRegistry(log, repositories.NewMemoryMessageRepository(), idgen.NewRoomIDGenerator())
	orchestrator := runtime.NewOrchestrator(log, runtime.NewSessionRegistry(), rooms,
		runtime.NewMatchmaker(log, rooms), time.Second)
	server := httptest.NewServer(NewHandler(log, orchestrator, testOptions()))
	t.Cleanup(server.Close)
	return server, orchestrator
}

func dial(t *testing.T, server *httptest.Server) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *gorilla.Conn, id int64, action Action, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Request{ID: id, Action: action, Payload: raw}))
}

func read(t *testing.T, ws *gorilla.Conn) frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func readAck(t *testing.T, ws *gorilla.Conn) AckPayload {
	t.Helper()
	f := read(t, ws)
	require.Equal(t, AckType, f.Type)
	var ack AckPayload
	require.NoError(t, json.Unmarshal(f.Payload, &ack))
	return ack
}

func TestHandler_Pairing_Scenario(t *testing.T) {
	req := require.New(t)
	server, orchestrator := newTestServer(t)
	alice := dial(t, server)
	bob := dial(t, server)

	// When alice starts a chat
	send(t, alice, 1, ActionStartChat, JoinPayload{DisplayName: "alice"})

	// Then she is announced, gets an empty history and a positive ack
	joined := read(t, alice)
	req.Equal("joined", joined.Type)
	history := read(t, alice)
	req.Equal("history", history.Type)
	req.JSONEq(`[]`, string(history.Payload))
	ack := readAck(t, alice)
	req.True(ack.Success)
	req.Equal(1, *ack.UsersInRoom)
	req.True(strings.HasPrefix(ack.RoomID, "room_"))
	req.Equal("Successfully joined room "+ack.RoomID, ack.Message)
	room := ack.RoomID

	// When bob starts a chat
	send(t, bob, 7, ActionStartChat, JoinPayload{DisplayName: "bob"})

	// Then both see bob join the same room
	var presence PresencePayload
	f := read(t, alice)
	req.Equal("joined", f.Type)
	req.NoError(json.Unmarshal(f.Payload, &presence))
	req.Equal(PresencePayload{DisplayName: "bob", UsersInRoom: 2, Message: "bob joined the chat"}, presence)
	req.Equal("joined", read(t, bob).Type)
	req.Equal("history", read(t, bob).Type)
	f = read(t, bob)
	req.Equal(int64(7), f.ID)
	var bobAck AckPayload
	req.NoError(json.Unmarshal(f.Payload, &bobAck))
	req.Equal(room, bobAck.RoomID)
	req.Equal(2, *bobAck.UsersInRoom)

	// When alice says hello
	send(t, alice, 2, ActionSendMessage, SendPayload{Text: "hello bob"})

	// Then both receive it
	var message MessagePayload
	f = read(t, bob)
	req.Equal("message", f.Type)
	req.NoError(json.Unmarshal(f.Payload, &message))
	req.Equal("alice", message.DisplayName)
	req.Equal("hello bob", message.Text)
	req.Equal("message", read(t, alice).Type)
	req.Equal("Message sent", readAck(t, alice).Message)

	// When bob asks for the room status
	send(t, bob, 8, ActionGetRoomStatus, nil)
	status := readAck(t, bob)
	req.Equal([]string{"alice", "bob"}, status.MemberNames)

	// When alice hangs up
	_ = alice.Close()

	// Then bob is told he is alone
	f = read(t, bob)
	req.Equal("left", f.Type)
	req.NoError(json.Unmarshal(f.Payload, &presence))
	req.Equal(PresencePayload{DisplayName: "alice", UsersInRoom: 1, Message: "alice left the chat"}, presence)
	req.Eventually(func() bool { return orchestrator.Stats().Connections == 1 }, time.Second, 10*time.Millisecond)
}

func TestHandler_Refusals(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)
	ws := dial(t, server)

	// Sending before joining
	send(t, ws, 1, ActionSendMessage, SendPayload{Text: "hi"})
	ack := readAck(t, ws)
	req.False(ack.Success)
	req.Equal(errors.KindNotInRoom, ack.Error)
	req.Equal("You are not in a chat room", ack.Message)

	// Asking for a status before joining
	send(t, ws, 7, ActionGetRoomStatus, nil)
	status := readAck(t, ws)
	req.False(status.Success)
	req.Equal(errors.KindNotInRoom, status.Error)
	req.Equal("Not in a chat room", status.Message)

	// Unknown action
	send(t, ws, 2, Action("dance"), nil)
	f := read(t, ws)
	req.Equal(int64(2), f.ID)
	var unknown AckPayload
	req.NoError(json.Unmarshal(f.Payload, &unknown))
	req.Equal(errors.KindInvalidRequest, unknown.Error)

	// Garbage frame
	req.NoError(ws.WriteMessage(gorilla.TextMessage, []byte("{not json")))
	req.Equal(errors.KindInvalidRequest, readAck(t, ws).Error)

	// Joining twice
	send(t, ws, 3, ActionStartChat, JoinPayload{DisplayName: "alice"})
	_ = read(t, ws)
	_ = read(t, ws)
	req.True(readAck(t, ws).Success)
	send(t, ws, 4, ActionStartChat, JoinPayload{DisplayName: "alice"})
	again := readAck(t, ws)
	req.Equal(errors.KindAlreadyInRoom, again.Error)
	req.Equal("You are already in a chat room. Leave the current room first.", again.Message)

	// Leaving twice
	send(t, ws, 5, ActionLeaveChat, nil)
	req.True(readAck(t, ws).Success)
	send(t, ws, 6, ActionLeaveChat, nil)
	req.Equal(errors.KindNotInRoom, readAck(t, ws).Error)
}

func TestHandler_Rejects_Foreign_Origin(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := gorilla.DefaultDialer.Dial(url, header)

	req.Error(err)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:3000")
	ws, _, err := gorilla.DefaultDialer.Dial(url, header)
	req.NoError(err)
	_ = ws.Close()
}

func TestHandler_Recovers_From_Panicking_Action(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockIOrchestrator(ctrl)

	disconnected := make(chan struct{})
	orchestrator.EXPECT().Connect(gomock.Any(), gomock.Any()).Times(1)
	orchestrator.EXPECT().
		RoomStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.ConnectionID) (domain.RoomStatus, error) {
			panic("boom")
		})
	orchestrator.EXPECT().
		Disconnect(gomock.Any(), gomock.Any()).
		Do(func(context.Context, domain.ConnectionID) { close(disconnected) }).
		Times(1)

	server := httptest.NewServer(NewHandler(slog.Default(), orchestrator, testOptions()))
	defer server.Close()
	ws := dial(t, server)

	// When the action panics
	send(t, ws, 9, ActionGetRoomStatus, nil)

	// Then the participant gets an internal error and the connection survives
	ack := readAck(t, ws)
	req.False(ack.Success)
	req.Equal(errors.KindInternal, ack.Error)

	_ = ws.Close()
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		req.Fail("disconnect was never reported")
	}
}
