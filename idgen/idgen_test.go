package idgen

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestRoomIDGenerator_New_IsUniqueAndPrefixed(t *testing.T) {
	req := require.New(t)
	gen := NewRoomIDGenerator()
	seen := make(map[string]struct{})

	for i := 0; i < 1000; i++ {
		id := string(gen.New())
		req.True(strings.HasPrefix(id, roomPrefix), id)
		_, dup := seen[id]
		req.False(dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestRoomIDGenerator_New_EncodesCreationTime(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	gen := RoomIDGenerator{now: func() time.Time { return at }}

	id := strings.TrimPrefix(string(gen.New()), roomPrefix)
	parsed, err := ulid.ParseStrict(strings.ToUpper(id))
	req.NoError(err)
	req.Equal(ulid.Timestamp(at), parsed.Time())
}
