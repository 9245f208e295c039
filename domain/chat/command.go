package chat

import (
	"time"
)

// SendMessageCommand is the intent of appending a message to the collection.
type SendMessageCommand struct {
	Text      string
	Author    Author
	CreatedAt time.Time
}

// ToMessage builds the record written to the backend. The ID is left empty.
func (c SendMessageCommand) ToMessage() Message {
	return Message{
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		Author:    c.Author,
	}
}
