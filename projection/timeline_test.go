package projection

import (
	"context"
	"testing"
	"time"

	"heybuddy/domain"
	"heybuddy/domain/event"

	"github.com/stretchr/testify/require"
)

func TestTimeline_History_Then_Messages(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")
	ctx := context.Background()

	// Given bob joined a room where alice already talked
	req.NoError(timeline.Consume(ctx, event.NewJoined("room_1", "bob", 2)))
	req.NoError(timeline.Consume(ctx, event.History{Room: "room_1", Messages: []domain.Message{
		{Author: "alice", Text: "anyone?", At: time.Now()},
	}}))

	// When both keep talking
	req.NoError(timeline.Consume(ctx, event.MessagePosted{Room: "room_1", Message: domain.Message{Author: "bob", Text: "hi"}}))
	req.NoError(timeline.Consume(ctx, event.MessagePosted{Room: "room_1", Message: domain.Message{Author: "alice", Text: "hey"}}))

	// Then the timeline is in arrival order
	messages := timeline.Snapshot()
	req.Len(messages, 3)
	req.Equal("anyone?", messages[0].Text)
	req.Equal("hey", messages[2].Text)
	req.True(timeline.IsOwn(messages[1]))
	req.False(timeline.IsOwn(messages[2]))
	req.Equal(2, timeline.UsersInRoom)
}

func TestTimeline_New_Room_Replaces_History(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")
	ctx := context.Background()
	req.NoError(timeline.Consume(ctx, event.History{Room: "room_1", Messages: []domain.Message{{Text: "old"}}}))

	// When bob moves to another room
	req.NoError(timeline.Consume(ctx, event.NewJoined("room_2", "bob", 1)))
	req.NoError(timeline.Consume(ctx, event.History{Room: "room_2", Messages: []domain.Message{}}))

	// Then the old room's messages are gone
	req.Empty(timeline.Snapshot())
	req.Equal(domain.RoomID("room_2"), timeline.Room)
}

func TestTimeline_Ignores_Foreign_Room(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")
	ctx := context.Background()
	req.NoError(timeline.Consume(ctx, event.History{Room: "room_1"}))

	req.NoError(timeline.Consume(ctx, event.MessagePosted{Room: "room_9", Message: domain.Message{Text: "stray"}}))

	req.Empty(timeline.Snapshot())
}

func TestTimeline_Left_And_Reset(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("bob")
	ctx := context.Background()
	req.NoError(timeline.Consume(ctx, event.NewJoined("room_1", "alice", 2)))

	req.NoError(timeline.Consume(ctx, event.NewLeft("room_1", "alice", 1)))
	req.Equal(1, timeline.UsersInRoom)

	timeline.Reset()
	req.Zero(timeline.UsersInRoom)
	req.Empty(timeline.Room)
}
