// Package chat contains core concepts of the chat system.
// This file defines the authenticated Identity and the Author snapshot
// copied onto every message.
// No runtime, network, or UI logic should be added here.
package chat

// Identity is the profile of the signed-in user as returned by an identity provider.
// It only lives in process memory.
type Identity struct {
	UID         string
	DisplayName string
	PhotoURL    string
}

// Author is the copy of an Identity stored on a Message at creation time.
type Author struct {
	UID         string `cbor:"uid" validate:"required"`
	DisplayName string `cbor:"displayName"`
	PhotoURL    string `cbor:"photoURL" validate:"omitempty,url"`
}

// Snapshot copies the identity fields, so later identity changes never alter
// messages already sent.
func (i Identity) Snapshot() Author {
	return Author{
		UID:         i.UID,
		DisplayName: i.DisplayName,
		PhotoURL:    i.PhotoURL,
	}
}

func (i Identity) IsZero() bool {
	return i.UID == ""
}

// Session pairs an Identity with the bearer credential the backend expects.
type Session struct {
	Identity Identity
	Token    string
}
