package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"nexus-gateway/domain"
	"nexus-gateway/errors"
)

// UserRepository is the BadgerDB-backed identity and authorization
// directory. Users live under "user:{id}", durable room memberships under
// "member:{room_id}:{user_id}". The CRUD endpoints that normally write
// these records are out of scope; the seed tool fills them for local use.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type storedUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"is_active"`
}

// CreateUser persists an identity record.
func (u *UserRepository) CreateUser(_ context.Context, user domain.User) error {
	value, err := json.Marshal(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("user:"+user.ID), value)
	})
}

// AddRoomMember records durable membership of a user in a room.
func (u *UserRepository) AddRoomMember(_ context.Context, roomID, userID string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("member:"+roomID+":"+userID), []byte{})
	})
}

// GetActiveUser resolves an identity. Unknown and deactivated users are
// both rejected with ErrUnknownIdentity; the handshake does not
// distinguish the two for the client.
func (u *UserRepository) GetActiveUser(_ context.Context, userID string) (domain.User, error) {
	var stored storedUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUnknownIdentity, userID)
	}
	if !stored.Active {
		return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUnknownIdentity, userID)
	}
	return toUser(stored), nil
}

// IsRoomMember answers the durable membership query behind join
// authorization.
func (u *UserRepository) IsRoomMember(_ context.Context, roomID, userID string) (bool, error) {
	member := false
	err := u.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("member:" + roomID + ":" + userID))
		if err == nil {
			member = true
			return nil
		}
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return member, err
}

func fromUser(user domain.User) storedUser {
	return storedUser{ID: user.ID, Name: user.Name, Role: user.Role, Active: user.Active}
}

func toUser(stored storedUser) domain.User {
	return domain.User{ID: stored.ID, Name: stored.Name, Role: stored.Role, Active: stored.Active}
}
