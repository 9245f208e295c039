package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func diskMessage(uid, text string, at time.Time) DiskMessage {
	return DiskMessage{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: at,
		User:      DiskAuthor{UID: uid, DisplayName: uid, PhotoURL: "http://x/" + uid + ".png"},
	}
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default(), nil)
	at := time.Now().UTC().Round(0)
	diskMessages := []DiskMessage{
		diskMessage("Alice", "this message will self destruct in 5 seconds", at),
		diskMessage("Bob", "this message will self destruct in 5 seconds", at.Add(1*time.Minute)),
		diskMessage("Clara", "this message will self destruct in 5 seconds", at.Add(2*time.Minute)),
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	fetchedMessages, err := repository.ListMessages()
	req.NoError(err)
	req.Equal(diskMessages, fetchedMessages)
}

func Test_List_Is_Ordered_By_Creation_Time_Not_Insertion(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default(), nil)
	at := time.Now().UTC().Round(0)
	late := diskMessage("Bob", "second", at.Add(time.Second))
	early := diskMessage("Alice", "first", at)

	// Given the later message is written first
	req.NoError(repository.StoreMessage(late))
	req.NoError(repository.StoreMessage(early))

	// Then the listing follows createdAt ascending
	fetchedMessages, err := repository.ListMessages()
	req.NoError(err)
	req.Equal([]DiskMessage{early, late}, fetchedMessages)
}

func Test_Record_Multiple_Message_And_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default(), lo.ToPtr(2))
	at := time.Now().UTC().Round(0)
	diskMessages := []DiskMessage{
		diskMessage("Alice", "one", at),
		diskMessage("Bob", "two", at.Add(1*time.Minute)),
		diskMessage("Clara", "three", at.Add(2*time.Minute)),
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	// Then only the newest messages are kept, still ascending
	fetchedMessages, err := repository.ListMessages()
	req.NoError(err)
	req.Equal(diskMessages[1:], fetchedMessages)
}

func Test_Empty_Collection(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default(), nil)

	fetchedMessages, err := repository.ListMessages()
	req.NoError(err)
	req.Empty(fetchedMessages)
}
