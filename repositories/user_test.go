package repositories

import (
	"superchat/errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	id, err := repository.CreateUser(NewUser{
		Email:          "ann@example.com",
		HashedPassword: "$argon2id$hash",
		DisplayName:    "Ann",
		PhotoURL:       "http://x/a.png",
	})
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.GetUserByEmail("ann@example.com")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("Ann", user.DisplayName)
	req.Equal("http://x/a.png", user.PhotoURL)
	req.Equal("$argon2id$hash", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
}

func TestUserRepository_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))
	account := NewUser{Email: "ann@example.com", HashedPassword: "h"}

	_, err := repository.CreateUser(account)
	req.NoError(err)

	_, err = repository.CreateUser(account)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.GetUserByEmail("nobody@example.com")
	req.ErrorIs(err, badger.ErrKeyNotFound)
}
