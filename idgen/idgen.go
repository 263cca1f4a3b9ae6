package idgen

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"heybuddy/domain"

	"github.com/oklog/ulid/v2"
)

const roomPrefix = "room_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a ULID for t: 48 bits of time followed by 80 bits of randomness.
// Within the same millisecond the randomness is incremented, so ids stay unique and sortable.
func NewULID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t.UTC()), entropy).String()
}

// RoomIDGenerator builds room ids such as room_01hzx3k5c8w7j2q9n4m6t0v1ab.
type RoomIDGenerator struct {
	now func() time.Time
}

func NewRoomIDGenerator() RoomIDGenerator {
	return RoomIDGenerator{now: time.Now}
}

func (g RoomIDGenerator) New() domain.RoomID {
	return domain.RoomID(roomPrefix + strings.ToLower(NewULID(g.now())))
}
