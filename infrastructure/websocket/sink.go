package websocket

import (
	"context"
	"sync"

	"heybuddy/domain/event"
	"heybuddy/errors"
)

// Sink buffers the frames addressed to one connection until the write pump
// sends them. It never blocks: a saturated buffer drops the frame.
type Sink struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewSink(bufferSize int) *Sink {
	return &Sink{
		frames: make(chan []byte, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the orchestrator with the event already committed.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	frame, err := EncodeEvent(e)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.push(frame)
}

func (s *Sink) push(frame []byte) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}
	select {
	case s.frames <- frame:
		return nil
	default:
		return errors.ErrSinkFull
	}
}

// Close stops the write pump. Frames still buffered are discarded.
func (s *Sink) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Sink) Frames() <-chan []byte {
	return s.frames
}

func (s *Sink) Done() <-chan struct{} {
	return s.done
}
