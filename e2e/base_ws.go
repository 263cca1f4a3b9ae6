package e2e

import (
	"encoding/json"
	"fmt"
	"time"

	"heybuddy/infrastructure/websocket"

	"github.com/gookit/color"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL not set")
	}
}

// Participant is one websocket connection driven by the test.
type Participant struct {
	s      *BaseWsSuite
	name   string
	ws     *gorilla.Conn
	nextID int64
}

// Connect opens a connection and prints a header for it in the test log.
func (s *BaseWsSuite) Connect(name string) *Participant {
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ws, _, err := gorilla.DefaultDialer.Dial(s.Config.ServerURL, nil)
	s.Require().NoError(err, "Failed to connect to "+s.Config.ServerURL)
	return &Participant{s: s, name: name, ws: ws}
}

func (p *Participant) Close() {
	_ = p.ws.Close()
}

func (p *Participant) Send(action websocket.Action, payload any) int64 {
	p.nextID++
	raw, err := json.Marshal(payload)
	p.s.Require().NoError(err)
	req := websocket.Request{ID: p.nextID, Action: action, Payload: raw}
	p.debug("SEND", req)
	p.s.Require().NoError(p.ws.WriteJSON(req))
	return p.nextID
}

// Next reads the next frame, failing the test after timeout.
func (p *Participant) Next(timeout time.Duration) websocket.InboundFrame {
	p.s.Require().NoError(p.ws.SetReadDeadline(time.Now().Add(timeout)))
	var frame websocket.InboundFrame
	p.s.Require().NoError(p.ws.ReadJSON(&frame), p.name+" did not receive a frame")
	p.debug("RECV", frame)
	return frame
}

// Expect reads the next frame and checks its type.
func (p *Participant) Expect(frameType string) websocket.InboundFrame {
	frame := p.Next(5 * time.Second)
	p.s.Require().Equal(frameType, frame.Type, "unexpected frame for "+p.name)
	return frame
}

func (p *Participant) ExpectAck(id int64) websocket.AckPayload {
	frame := p.Expect(websocket.AckType)
	p.s.Require().Equal(id, frame.ID)
	var ack websocket.AckPayload
	p.s.Require().NoError(json.Unmarshal(frame.Payload, &ack))
	return ack
}

func (p *Participant) debug(direction string, v any) {
	if !p.s.Config.DebugJSON {
		return
	}
	raw, _ := json.MarshalIndent(v, "", "  ")
	p.s.T().Logf("%s %s %s", p.name, direction, raw)
}
