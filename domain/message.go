// Package domain contains core concepts of the chat system.
// This file defines Message records and related rules.
// Messages are immutable once appended to a room log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a line of text relayed inside a room.
// At is assigned at relay time, never taken from the client.
type Message struct {
	ID               uuid.UUID
	Author           string
	Text             string
	At               time.Time
	AuthorConnection ConnectionID
}
