// Package chat contains core concepts of the chat system.
// This file defines Message records and related rules.
// Messages are immutable once the backend accepted them.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Collection is the name of the ordered message collection.
const Collection = "messages"

// Message represents an immutable chat entry.
type Message struct {
	ID        uuid.UUID // assigned by the backend
	Text      string    `validate:"required,notblank"`
	CreatedAt time.Time
	Author    Author `validate:"required"`
}

// IsFrom reports whether the message was written by the given uid.
func (m Message) IsFrom(uid string) bool {
	return m.Author.UID == uid
}
