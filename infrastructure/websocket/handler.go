// Package websocket exposes the orchestrator to browsers and terminal
// clients over a single websocket per participant.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"heybuddy/contract"
	"heybuddy/domain"
	"heybuddy/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Options struct {
	BufferSize     int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

type Handler struct {
	log          *slog.Logger
	orchestrator contract.IOrchestrator
	upgrader     gorilla.Upgrader
	validate     *validator.Validate
	opts         Options
}

func NewHandler(log *slog.Logger, orchestrator contract.IOrchestrator, opts Options) *Handler {
	h := &Handler{
		log:          log,
		orchestrator: orchestrator,
		validate:     validator.New(),
		opts:         opts,
	}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts non-browser clients (no Origin header) and the configured origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || lo.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, origin)
}

// ServeHTTP upgrades the request and blocks until the connection is gone.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	conn := domain.ConnectionID(uuid.NewString())
	sink := NewSink(h.opts.BufferSize)
	h.orchestrator.Connect(conn, sink)
	h.log.Info("User connected", "connection_id", conn, "remote_addr", r.RemoteAddr)

	go h.writePump(ws, sink, conn)
	h.readPump(context.WithoutCancel(r.Context()), ws, sink, conn)
}

func (h *Handler) readPump(ctx context.Context, ws *gorilla.Conn, sink *Sink, conn domain.ConnectionID) {
	defer func() {
		h.orchestrator.Disconnect(ctx, conn)
		sink.Close()
		_ = ws.Close()
		h.log.Info("User disconnected", "connection_id", conn)
	}()

	ws.SetReadLimit(h.opts.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				h.log.Warn("Connection closed unexpectedly", "connection_id", conn, "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))

		ack := h.dispatch(ctx, conn, data)
		frame, err := json.Marshal(ack)
		if err != nil {
			h.log.Error("Failed to encode ack", "connection_id", conn, "error", err)
			continue
		}
		if err := sink.push(frame); err != nil {
			h.log.Warn("Ack dropped", "connection_id", conn, "id", ack.ID, "error", err)
		}
	}
}

// writePump is the only writer of ws.
func (h *Handler) writePump(ws *gorilla.Conn, sink *Sink, conn domain.ConnectionID) {
	ticker := time.NewTicker(h.opts.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case frame := <-sink.Frames():
			_ = ws.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := ws.WriteMessage(gorilla.TextMessage, frame); err != nil {
				h.log.Debug("Write failed", "connection_id", conn, "error", err)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := ws.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		case <-sink.Done():
			_ = ws.WriteControl(gorilla.CloseMessage,
				gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""),
				time.Now().Add(h.opts.WriteTimeout))
			return
		}
	}
}

// dispatch decodes one frame and runs the matching action.
func (h *Handler) dispatch(ctx context.Context, conn domain.ConnectionID, data []byte) (ack AckFrame) {
	ack = AckFrame{Type: AckType}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		ack.Payload = failureAck(fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err))
		return ack
	}
	ack.ID = req.ID
	if err := h.validate.Struct(req); err != nil {
		ack.Payload = failureAck(fmt.Errorf("%w: unknown action %q", errors.ErrInvalidRequest, req.Action))
		return ack
	}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Action handler panicked", "connection_id", conn, "action", req.Action, "panic", r)
			ack.Payload = failureAck(fmt.Errorf("%w: %v", errors.ErrInternal, r))
		}
	}()
	ack.Payload = h.handle(ctx, conn, req)
	return ack
}

func (h *Handler) handle(ctx context.Context, conn domain.ConnectionID, req Request) AckPayload {
	switch req.Action {
	case ActionStartChat:
		var p JoinPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return failureAck(err)
		}
		res, err := h.orchestrator.StartChat(ctx, conn, p.DisplayName)
		if err != nil {
			h.log.Debug("start_chat refused", "connection_id", conn, "error", err)
			return failureAck(err)
		}
		return joinAck(fmt.Sprintf("Successfully joined room %s", res.RoomID), res)

	case ActionNewChat:
		var p JoinPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return failureAck(err)
		}
		res, err := h.orchestrator.NewChat(ctx, conn, p.DisplayName)
		if err != nil {
			h.log.Error("Error in new_chat", "connection_id", conn, "error", err)
			return failureAck(err)
		}
		return joinAck(fmt.Sprintf("Started new chat in room %s", res.RoomID), res)

	case ActionSendMessage:
		var p SendPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return failureAck(err)
		}
		if err := h.orchestrator.SendMessage(ctx, conn, p.Text); err != nil {
			return failureAck(err)
		}
		return AckPayload{Success: true, Message: "Message sent"}

	case ActionLeaveChat:
		if err := h.orchestrator.LeaveChat(ctx, conn); err != nil {
			return failureAck(err)
		}
		return AckPayload{Success: true, Message: "Left the chat"}

	case ActionGetRoomStatus:
		status, err := h.orchestrator.RoomStatus(ctx, conn)
		if err != nil {
			return statusFailureAck(err)
		}
		return statusAck(status)
	}
	return failureAck(fmt.Errorf("%w: unknown action %q", errors.ErrInvalidRequest, req.Action))
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}
