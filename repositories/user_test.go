package repositories

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "message-room/errors"
)

func Test_Upsert_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository, err := NewUserRepository(openTestDB(t))
	req.NoError(err)

	// When the same username is registered twice
	first, err := repository.Upsert("Alice")
	req.NoError(err)
	second, err := repository.Upsert("Alice")
	req.NoError(err)

	// Then the original row wins
	req.Equal(first.ID, second.ID)
	req.Equal(first.JoinedAt, second.JoinedAt)

	count, err := repository.Count()
	req.NoError(err)
	req.Equal(1, count)
}

func Test_Upsert_Rejects_Invalid_Username(t *testing.T) {
	req := require.New(t)
	repository, err := NewUserRepository(openTestDB(t))
	req.NoError(err)

	_, err = repository.Upsert("")
	req.ErrorIs(err, apperrors.ErrEmptyUsername)

	_, err = repository.Upsert(strings.Repeat("a", 51))
	req.ErrorIs(err, apperrors.ErrUsernameTooLong)

	count, err := repository.Count()
	req.NoError(err)
	req.Zero(count)
}

func Test_Usernames_Are_Case_Sensitive(t *testing.T) {
	req := require.New(t)
	repository, err := NewUserRepository(openTestDB(t))
	req.NoError(err)

	alice, err := repository.Upsert("alice")
	req.NoError(err)
	upper, err := repository.Upsert("Alice")
	req.NoError(err)

	req.NotEqual(alice.ID, upper.ID)

	count, err := repository.Count()
	req.NoError(err)
	req.Equal(2, count)
}

func Test_Concurrent_Upsert_Of_The_Same_Username_Keeps_One_Row(t *testing.T) {
	req := require.New(t)
	repository, err := NewUserRepository(openTestDB(t))
	req.NoError(err)

	// When twenty sessions register the same name at once
	workers := 20
	ids := make([]uint64, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			user, err := repository.Upsert("Bob")
			require.NoError(t, err)
			ids[i] = user.ID
		}(i)
	}
	wg.Wait()

	// Then every caller observed the same row
	for _, id := range ids {
		req.Equal(ids[0], id)
	}

	count, err := repository.Count()
	req.NoError(err)
	req.Equal(1, count)
}

func Test_ListAll_Returns_Every_Registered_User(t *testing.T) {
	req := require.New(t)
	repository, err := NewUserRepository(openTestDB(t))
	req.NoError(err)

	for _, username := range []string{"alice", "bob", "clara"} {
		_, err := repository.Upsert(username)
		req.NoError(err)
	}

	users, err := repository.ListAll()
	req.NoError(err)
	req.Len(users, 3)

	usernames := make(map[string]bool, len(users))
	for _, user := range users {
		usernames[user.Username] = true
	}
	req.True(usernames["alice"])
	req.True(usernames["bob"])
	req.True(usernames["clara"])
}
