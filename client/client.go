package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"heybuddy/domain/event"
	"heybuddy/infrastructure/websocket"
	"heybuddy/projection"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	gorilla "github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL   string `env:"CHAT_SERVER_URL,default=ws://localhost:5000/socket"`
	DisplayName string `env:"CHAT_DISPLAY_NAME,default=Anonymous"`
	LogLevel    string `env:"LOG_LEVEL,default=WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run joins a chat and relays stdin lines until /quit, Ctrl+C or the server leaves.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	ws, _, err := gorilla.DefaultDialer.DialContext(dialCtx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerURL, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = ws.Close()
	}()

	c := &chatClient{ws: ws, timeline: projection.NewTimeline(config.DisplayName), name: config.DisplayName}
	color.Cyan.Printf(">>> Connected to %s as %s. /new, /leave, /status, /quit\n", config.ServerURL, config.DisplayName)

	readErr := make(chan error, 1)
	go func() { readErr <- c.receive(ctx) }()

	if err := c.send(websocket.ActionStartChat, websocket.JoinPayload{DisplayName: config.DisplayName}); err != nil {
		return exitRuntime, err
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			quit, err := c.handleLine(strings.TrimSpace(line))
			if err != nil {
				return exitRuntime, err
			}
			if quit {
				return exitOK, nil
			}
		}
	}
}

type chatClient struct {
	ws       *gorilla.Conn
	timeline *projection.Timeline
	name     string
	nextID   atomic.Int64
}

func (c *chatClient) handleLine(line string) (bool, error) {
	switch line {
	case "":
		return false, nil
	case "/quit":
		return true, nil
	case "/new":
		c.timeline.Reset()
		return false, c.send(websocket.ActionNewChat, websocket.JoinPayload{DisplayName: c.name})
	case "/leave":
		c.timeline.Reset()
		return false, c.send(websocket.ActionLeaveChat, nil)
	case "/status":
		return false, c.send(websocket.ActionGetRoomStatus, nil)
	default:
		return false, c.send(websocket.ActionSendMessage, websocket.SendPayload{Text: line})
	}
}

func (c *chatClient) send(action websocket.Action, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.ws.WriteJSON(websocket.Request{ID: c.nextID.Add(1), Action: action, Payload: raw})
}

func (c *chatClient) receive(ctx context.Context) error {
	for {
		var frame websocket.InboundFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			return err
		}
		if frame.IsAck() {
			c.printAck(frame)
			continue
		}
		evt, err := websocket.DecodeEvent(frame, c.timeline.Room)
		if err != nil {
			color.Red.Printf("unreadable frame: %v\n", err)
			continue
		}
		_ = c.timeline.Consume(ctx, evt)
		c.printEvent(evt)
	}
}

func (c *chatClient) printAck(frame websocket.InboundFrame) {
	var ack websocket.AckPayload
	if err := json.Unmarshal(frame.Payload, &ack); err != nil {
		return
	}
	switch {
	case !ack.Success:
		color.Red.Printf("! %s\n", ack.Message)
	case len(ack.MemberNames) > 0:
		color.Gray.Printf("%s: %s\n", ack.RoomID, strings.Join(ack.MemberNames, ", "))
	case ack.RoomID != "":
		color.Gray.Println(ack.Message)
	}
}

func (c *chatClient) printEvent(evt event.DomainEvent) {
	switch e := evt.(type) {
	case event.Joined:
		color.Yellow.Printf("* %s (%d/2)\n", e.Announcement, e.UsersInRoom)
	case event.Left:
		color.Yellow.Printf("* %s (%d/2)\n", e.Announcement, e.UsersInRoom)
	case event.History:
		for _, m := range e.Messages {
			color.Gray.Printf("[%s] %s: %s\n", m.At.Local().Format(time.TimeOnly), m.Author, m.Text)
		}
	case event.MessagePosted:
		line := fmt.Sprintf("[%s] %s: %s", e.Message.At.Local().Format(time.TimeOnly), e.Message.Author, e.Message.Text)
		if c.timeline.IsOwn(e.Message) {
			color.Green.Println(line)
		} else {
			color.Cyan.Println(line)
		}
	}
}
