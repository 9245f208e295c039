//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"superchat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const userPrefix = "user:"

type IUserRepository interface {
	CreateUser(account NewUser) (string, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// NewUser is what registration hands to the repository, password already hashed.
type NewUser struct {
	Email          string
	HashedPassword string
	DisplayName    string
	PhotoURL       string
}

// User is the domain-friendly representation of an account in the repository layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	Roles        []string
	CreatedAt    time.Time
}

type userRecord struct {
	ID           string   `cbor:"id"`
	Email        string   `cbor:"email"`
	PasswordHash string   `cbor:"passwordHash"`
	DisplayName  string   `cbor:"displayName"`
	PhotoURL     string   `cbor:"photoURL"`
	Roles        []string `cbor:"roles"`
	CreatedAt    int64    `cbor:"createdAt"`
}

// CreateUser persists the account in BadgerDB.
// It returns the newly generated User ID
func (u UserRepository) CreateUser(account NewUser) (string, error) {
	newID := uuid.New().String()
	record := userRecord{
		ID:           newID,
		Email:        account.Email,
		PasswordHash: account.HashedPassword,
		DisplayName:  account.DisplayName,
		PhotoURL:     account.PhotoURL,
		CreatedAt:    time.Now().Unix(),
		Roles:        []string{"user"},
	}

	data, err := marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userPrefix + account.Email)
		if _, err = txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// GetUserByEmail retrieves an account from Badger and converts it to the repository.User struct.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var record userRecord

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + email))
		if err != nil {
			return err // Handled as ErrInvalidCredentials by the service
		}

		return item.Value(func(val []byte) error {
			return unmarshal(val, &record)
		})
	})

	if err != nil {
		return User{}, err
	}

	return toUserStruct(record), nil
}

func toUserStruct(record userRecord) User {
	return User{
		ID:           record.ID,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		DisplayName:  record.DisplayName,
		PhotoURL:     record.PhotoURL,
		Roles:        record.Roles,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
}
