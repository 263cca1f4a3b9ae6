package repositories

import (
	"log/slog"
	"testing"
	"time"

	"heybuddy/domain"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func repositories(t *testing.T) map[string]IMessageRepository {
	req := require.New(t)
	db, err := OpenInMemoryBadger()
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return map[string]IMessageRepository{
		"memory": NewMemoryMessageRepository(),
		"badger": NewBadgerMessageRepository(db, log),
	}
}

func messages(authors ...string) []domain.Message {
	// Timestamps deliberately go backwards: the log must follow append order
	at := time.Now().UTC()
	res := make([]domain.Message, 0, len(authors))
	for i, author := range authors {
		res = append(res, domain.Message{
			ID:               uuid.New(),
			Author:           author,
			Text:             "this message will self destruct in 5 seconds",
			At:               at.Add(-time.Duration(i) * time.Minute),
			AuthorConnection: domain.ConnectionID(author + "-conn"),
		})
	}
	return res
}

func Test_Append_And_List_Keeps_Append_Order(t *testing.T) {
	for name, repository := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			room := domain.RoomID("room_1")
			expected := messages("Alice", "Bob", "Clara")

			// When messages are appended
			for _, m := range expected {
				req.NoError(repository.Append(room, m))
			}

			// Then they are listed in the same order
			fetched, err := repository.List(room)
			req.NoError(err)
			req.Equal(expected, fetched)

			count, err := repository.Count(room)
			req.NoError(err)
			req.Equal(3, count)
		})
	}
}

func Test_Rooms_Are_Isolated(t *testing.T) {
	for name, repository := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)

			// Given two rooms sharing a common prefix
			req.NoError(repository.Append("room_1", messages("Alice")[0]))
			req.NoError(repository.Append("room_10", messages("Bob")[0]))

			// Then each room only sees its own log
			first, err := repository.List("room_1")
			req.NoError(err)
			req.Len(first, 1)
			req.Equal("Alice", first[0].Author)

			second, err := repository.List("room_10")
			req.NoError(err)
			req.Len(second, 1)
			req.Equal("Bob", second[0].Author)
		})
	}
}

func Test_Drop_Removes_Whole_Log(t *testing.T) {
	for name, repository := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			room := domain.RoomID("room_1")
			for _, m := range messages("Alice", "Bob") {
				req.NoError(repository.Append(room, m))
			}
			req.NoError(repository.Append("room_2", messages("Clara")[0]))

			// When the room log is dropped
			req.NoError(repository.Drop(room))

			// Then nothing is left for that room
			fetched, err := repository.List(room)
			req.NoError(err)
			req.Empty(fetched)

			// And other rooms are untouched
			count, err := repository.Count("room_2")
			req.NoError(err)
			req.Equal(1, count)

			// And dropping again is harmless
			req.NoError(repository.Drop(room))
		})
	}
}

func Test_List_Returns_A_Copy(t *testing.T) {
	req := require.New(t)
	repository := NewMemoryMessageRepository()
	room := domain.RoomID("room_1")
	req.NoError(repository.Append(room, messages("Alice")[0]))

	fetched, err := repository.List(room)
	req.NoError(err)
	fetched[0].Text = "edited"

	again, err := repository.List(room)
	req.NoError(err)
	req.NotEqual("edited", again[0].Text)
}
