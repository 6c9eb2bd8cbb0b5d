//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"message-room/domain"
	apperrors "message-room/errors"
)

type IUserRepository interface {
	Upsert(username string) (domain.User, error)
	Count() (int, error)
	ListAll() ([]domain.User, error)
}

type UserRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewUserRepository(db *badger.DB) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte("seq:user"), 16)
	if err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	return &UserRepository{db: db, seq: seq}, nil
}

func (u *UserRepository) Close() error {
	return u.seq.Release()
}

type diskUser struct {
	ID       uint64 `cbor:"1,keyasint"`
	Username string `cbor:"2,keyasint"`
	JoinedAt int64  `cbor:"3,keyasint"`
}

// Upsert returns the existing row for username, or creates one with
// JoinedAt set to now. Get and Set run in a single transaction so the
// uniqueness guarantee does not rest on a check-then-insert race: when two
// upserts for the same username conflict, Badger aborts one with
// ErrConflict and the retry fetches the row the winner committed.
func (u *UserRepository) Upsert(username string) (domain.User, error) {
	if username == "" {
		return domain.User{}, apperrors.ErrEmptyUsername
	}
	if len([]rune(username)) > domain.MaxUsernameLength {
		return domain.User{}, apperrors.ErrUsernameTooLong
	}

	key := userKey(username)
	for {
		var user domain.User
		err := u.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err == nil {
				return item.Value(func(val []byte) error {
					user, err = decodeUser(val)
					return err
				})
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			next, err := u.seq.Next()
			if err != nil {
				return fmt.Errorf("next user id: %w", err)
			}
			user = domain.User{
				ID:       next + 1,
				Username: username,
				JoinedAt: time.Now().UTC(),
			}
			bytes, err := cbor.Marshal(diskUser{
				ID:       user.ID,
				Username: user.Username,
				JoinedAt: user.JoinedAt.UnixNano(),
			})
			if err != nil {
				return fmt.Errorf("marshal user: %w", err)
			}
			return txn.Set(key, bytes)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.User{}, fmt.Errorf("upsert user: %w", err)
		}
		return user, nil
	}
}

// Count returns the number of distinct usernames that ever joined. This is
// the historical count, deliberately independent of live presence.
func (u *UserRepository) Count() (int, error) {
	count := 0
	err := u.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// ListAll returns every known user. No ordering guarantee, callers get
// whatever key order Badger yields.
func (u *UserRepository) ListAll() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := decodeUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

const userPrefix = "user:"

func userKey(username string) []byte {
	return []byte(userPrefix + username)
}

// DecodeUserValue decodes a raw stored user value, for inspection tools.
func DecodeUserValue(val []byte) (domain.User, error) {
	return decodeUser(val)
}

func decodeUser(val []byte) (domain.User, error) {
	var du diskUser
	if err := cbor.Unmarshal(val, &du); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return domain.User{
		ID:       du.ID,
		Username: du.Username,
		JoinedAt: time.Unix(0, du.JoinedAt).UTC(),
	}, nil
}
