package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentity_Snapshot_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	identity := Identity{UID: "u1", DisplayName: "Ann", PhotoURL: "http://x/a.png"}

	// Given a snapshot taken at send time
	author := identity.Snapshot()

	// When the identity changes afterwards
	identity.DisplayName = "Annie"
	identity.PhotoURL = "http://x/b.png"

	// Then the snapshot is untouched
	req.Equal(Author{UID: "u1", DisplayName: "Ann", PhotoURL: "http://x/a.png"}, author)
}

func TestMessage_IsFrom(t *testing.T) {
	req := require.New(t)
	message := Message{Text: "hi", Author: Author{UID: "u1"}}

	req.True(message.IsFrom("u1"))
	req.False(message.IsFrom("u2"))
}
