//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	ListMessages() ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the stored shape of a message, matching the wire record
// {text, createdAt, user:{uid, displayName, photoURL}}.
type DiskMessage struct {
	ID        uuid.UUID
	Text      string
	CreatedAt time.Time
	User      DiskAuthor
}

type DiskAuthor struct {
	UID         string `cbor:"uid"`
	DisplayName string `cbor:"displayName"`
	PhotoURL    string `cbor:"photoURL"`
}

type diskRecord struct {
	ID        string     `cbor:"id"`
	Text      string     `cbor:"text"`
	CreatedAt int64      `cbor:"createdAt"`
	User      DiskAuthor `cbor:"user"`
}

// messageKey is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func messageKey(message DiskMessage) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, message.CreatedAt.UnixNano(), message.ID))
}

// StoreMessage persists a message in BadgerDB.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	bytes, err := marshal(fromDiskMessage(message))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
}

// ListMessages returns the whole collection ordered by creation time ascending.
// When limitMessages is set only the newest messages are kept, still ascending.
func (m MessageRepository) ListMessages() ([]DiskMessage, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts after the greatest possible key of the prefix
		seekKey := append([]byte(messagePrefix), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			byteMessages = append(byteMessages, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	diskMessages := make([]DiskMessage, 0, len(byteMessages))
	// Keys were collected newest first
	for i := len(byteMessages) - 1; i >= 0; i-- {
		var record diskRecord
		if err = unmarshal(byteMessages[i], &record); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		message, err := toDiskMessage(record)
		if err != nil {
			return nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, nil
}

func fromDiskMessage(message DiskMessage) diskRecord {
	return diskRecord{
		ID:        message.ID.String(),
		Text:      message.Text,
		CreatedAt: message.CreatedAt.UnixNano(),
		User:      message.User,
	}
}

func toDiskMessage(record diskRecord) (DiskMessage, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID:        parsedID,
		Text:      record.Text,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
		User:      record.User,
	}, nil
}

// DecodeMessage turns a raw stored value back into a DiskMessage.
// Used by offline tooling reading the database directly.
func DecodeMessage(value []byte) (DiskMessage, error) {
	var record diskRecord
	if err := unmarshal(value, &record); err != nil {
		return DiskMessage{}, err
	}
	return toDiskMessage(record)
}

// MessagePrefix is the key prefix of the messages collection.
func MessagePrefix() []byte {
	return []byte(messagePrefix)
}
