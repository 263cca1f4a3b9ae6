package e2e

import (
	"encoding/json"
	"fmt"
	"testing"

	"heybuddy/infrastructure/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testPairingSuite struct {
	BaseWsSuite
}

func TestPairingSuite(t *testing.T) {
	suite.Run(t, &testPairingSuite{})
}

func (s *testPairingSuite) TestTwoStrangersChat() {
	suffix := uuid.NewString()[:8]
	alice := s.Connect("alice")
	defer alice.Close()
	bob := s.Connect("bob")
	defer bob.Close()

	var room string
	paired := false

	// --- STEP 1: FIRST ARRIVAL ---
	s.Run("Step 1: alice starts a chat", func() {
		id := alice.Send(websocket.ActionStartChat, websocket.JoinPayload{DisplayName: "alice-" + suffix})
		alice.Expect("joined")
		alice.Expect("history")
		ack := alice.ExpectAck(id)
		s.Require().True(ack.Success, ack.Message)
		room = ack.RoomID
	})

	// --- STEP 2: PAIRING ---
	// Other e2e runs may leave a waiting participant behind, so bob may land elsewhere.
	// Only the room bob reports is checked.
	s.Run("Step 2: bob starts a chat", func() {
		id := bob.Send(websocket.ActionStartChat, websocket.JoinPayload{DisplayName: "bob-" + suffix})
		bob.Expect("joined")
		bob.Expect("history")
		ack := bob.ExpectAck(id)
		s.Require().True(ack.Success, ack.Message)
		if ack.RoomID != room {
			s.T().Logf("bob was paired in %s, another participant was waiting", ack.RoomID)
			return
		}
		s.Require().Equal(2, *ack.UsersInRoom)
		alice.Expect("joined")
		paired = true
	})
	if !paired {
		s.T().Skip(fmt.Sprintf("alice and bob were not paired in %s", room))
	}

	// --- STEP 3: RELAY ---
	s.Run("Step 3: alice talks, both hear it", func() {
		id := alice.Send(websocket.ActionSendMessage, websocket.SendPayload{Text: "hello " + suffix})
		for _, p := range []*Participant{alice, bob} {
			frame := p.Expect("message")
			var msg websocket.MessagePayload
			s.Require().NoError(json.Unmarshal(frame.Payload, &msg))
			s.Require().Equal("hello "+suffix, msg.Text)
			s.Require().Equal("alice-"+suffix, msg.DisplayName)
		}
		s.Require().True(alice.ExpectAck(id).Success)
	})

	// --- STEP 4: DEPARTURE ---
	s.Run("Step 4: alice leaves, bob is told", func() {
		alice.Close()
		frame := bob.Expect("left")
		var presence websocket.PresencePayload
		s.Require().NoError(json.Unmarshal(frame.Payload, &presence))
		s.Require().Equal(1, presence.UsersInRoom)

		id := bob.Send(websocket.ActionGetRoomStatus, nil)
		status := bob.ExpectAck(id)
		s.Require().Equal([]string{"bob-" + suffix}, status.MemberNames)
	})
}
