//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"heybuddy/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// IMessageRepository keeps the append-only log of every live room.
type IMessageRepository interface {
	Append(room domain.RoomID, message domain.Message) error
	List(room domain.RoomID) ([]domain.Message, error)
	Count(room domain.RoomID) (int, error)
	Drop(room domain.RoomID) error
}

// MemoryMessageRepository keeps room logs in plain slices.
type MemoryMessageRepository struct {
	mu   sync.RWMutex
	logs map[domain.RoomID][]domain.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{logs: make(map[domain.RoomID][]domain.Message)}
}

func (m *MemoryMessageRepository) Append(room domain.RoomID, message domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[room] = append(m.logs[room], message)
	return nil
}

// List returns a copy of the log, oldest first. An unknown room has an empty log.
func (m *MemoryMessageRepository) List(room domain.RoomID) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	messages := make([]domain.Message, len(m.logs[room]))
	copy(messages, m.logs[room])
	return messages, nil
}

func (m *MemoryMessageRepository) Count(room domain.RoomID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs[room]), nil
}

func (m *MemoryMessageRepository) Drop(room domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logs, room)
	return nil
}

// BadgerMessageRepository keeps room logs in an in-memory BadgerDB.
// Nothing survives the process: the database is opened without a directory.
type BadgerMessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq atomic.Uint64
}

func OpenInMemoryBadger() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
}

func NewBadgerMessageRepository(db *badger.DB, log *slog.Logger) *BadgerMessageRepository {
	return &BadgerMessageRepository{db: db, log: log}
}

type DiskMessage struct {
	ID               uuid.UUID `json:"id"`
	Room             string    `json:"room"`
	Author           string    `json:"author"`
	Text             string    `json:"text"`
	At               time.Time `json:"at"`
	AuthorConnection string    `json:"author_connection"`
}

// Append stores a message under "msg:{room}:{seq}".
// The sequence is zero padded to 19 digits so that lexicographical key order
// is append order, whatever the message timestamps are.
func (b *BadgerMessageRepository) Append(room domain.RoomID, message domain.Message) error {
	key := fmt.Sprintf("%s%019d", roomPrefix(room), b.seq.Add(1))
	bytes, err := json.Marshal(fromDomainMessage(room, message))
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// List scans the room prefix forward, which yields messages oldest first.
func (b *BadgerMessageRepository) List(room domain.RoomID) ([]domain.Message, error) {
	var diskMessages []DiskMessage
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix(room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm DiskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				diskMessages = append(diskMessages, dm)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, func(item DiskMessage, _ int) domain.Message {
		return toDomainMessage(item)
	}), nil
}

func (b *BadgerMessageRepository) Count(room domain.RoomID) (int, error) {
	keys, err := b.keys(room)
	return len(keys), err
}

// Drop deletes every message of the room.
func (b *BadgerMessageRepository) Drop(room domain.RoomID) error {
	keys, err := b.keys(room)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	b.log.Debug("Dropping room log", "room_id", room, "messages", len(keys))
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *BadgerMessageRepository) keys(room domain.RoomID) ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix(room))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func roomPrefix(room domain.RoomID) string {
	return fmt.Sprintf("msg:%s:", room)
}

func fromDomainMessage(room domain.RoomID, message domain.Message) DiskMessage {
	return DiskMessage{
		ID:               message.ID,
		Room:             string(room),
		Author:           message.Author,
		Text:             message.Text,
		At:               message.At,
		AuthorConnection: string(message.AuthorConnection),
	}
}

func toDomainMessage(dm DiskMessage) domain.Message {
	return domain.Message{
		ID:               dm.ID,
		Author:           dm.Author,
		Text:             dm.Text,
		At:               dm.At,
		AuthorConnection: domain.ConnectionID(dm.AuthorConnection),
	}
}
