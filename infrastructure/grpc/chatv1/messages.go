package chatv1

import (
	"fmt"
	"superchat/domain/chat"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Author struct {
	UID         string `cbor:"uid"`
	DisplayName string `cbor:"displayName"`
	PhotoURL    string `cbor:"photoURL"`
}

// Message is a stored record. CreatedAt is in unix nanoseconds.
type Message struct {
	ID        string `cbor:"id"`
	Text      string `cbor:"text"`
	CreatedAt int64  `cbor:"createdAt"`
	User      Author `cbor:"user"`
}

type AppendRequest struct {
	Text      string `cbor:"text"`
	CreatedAt int64  `cbor:"createdAt,omitempty"`
	User      Author `cbor:"user"`
}

type AppendResponse struct {
	Message Message `cbor:"message"`
}

type WatchRequest struct{}

// Snapshot is the full ordered collection after a change.
type Snapshot struct {
	Messages []Message `cbor:"messages"`
}

type RegisterRequest struct {
	Email       string `cbor:"email"`
	Password    string `cbor:"password"`
	DisplayName string `cbor:"displayName"`
	PhotoURL    string `cbor:"photoURL,omitempty"`
}

type LoginRequest struct {
	Email    string `cbor:"email"`
	Password string `cbor:"password"`
}

type AuthResponse struct {
	Token       string `cbor:"token"`
	UID         string `cbor:"uid"`
	DisplayName string `cbor:"displayName"`
	PhotoURL    string `cbor:"photoURL"`
}

func ToAuthor(author chat.Author) Author {
	return Author{UID: author.UID, DisplayName: author.DisplayName, PhotoURL: author.PhotoURL}
}

func (a Author) ToDomain() chat.Author {
	return chat.Author{UID: a.UID, DisplayName: a.DisplayName, PhotoURL: a.PhotoURL}
}

func ToMessage(message chat.Message) Message {
	return Message{
		ID:        message.ID.String(),
		Text:      message.Text,
		CreatedAt: message.CreatedAt.UnixNano(),
		User:      ToAuthor(message.Author),
	}
}

func (m Message) ToDomain() (chat.Message, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message id %q: %w", m.ID, err)
	}
	return chat.Message{
		ID:        id,
		Text:      m.Text,
		CreatedAt: time.Unix(0, m.CreatedAt).UTC(),
		Author:    m.User.ToDomain(),
	}, nil
}

func ToSnapshot(messages []chat.Message) *Snapshot {
	return &Snapshot{Messages: lo.Map(messages, func(item chat.Message, _ int) Message {
		return ToMessage(item)
	})}
}

func (s *Snapshot) ToDomain() ([]chat.Message, error) {
	messages := make([]chat.Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		message, err := m.ToDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func ToAppendRequest(message chat.Message) *AppendRequest {
	request := &AppendRequest{Text: message.Text, User: ToAuthor(message.Author)}
	if !message.CreatedAt.IsZero() {
		request.CreatedAt = message.CreatedAt.UnixNano()
	}
	return request
}

func (r *AppendRequest) ToDomain() chat.Message {
	message := chat.Message{Text: r.Text, Author: r.User.ToDomain()}
	if r.CreatedAt != 0 {
		message.CreatedAt = time.Unix(0, r.CreatedAt).UTC()
	}
	return message
}
