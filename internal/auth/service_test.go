package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/travel-packages/internal/apperr"
)

func newTestService() (*Service, *MemoryUserStore) {
	store := NewMemoryUserStore()
	return NewService(store, bcrypt.MinCost), store
}

func TestSignupHashesPassword(t *testing.T) {
	store := NewMemoryUserStore()
	svc := NewService(store, bcrypt.DefaultCost)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "a@x.com", "alice", "pw123")
	require.NoError(t, err)
	assert.False(t, user.ID.IsZero())
	assert.NotEqual(t, "pw123", user.PasswordHash)

	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	stored, err := store.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw123")))
}

func TestSignupConflicts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@x.com", "alice", "pw123")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "a@x.com", "alice2", "pw123")
	assert.ErrorIs(t, err, ErrConflict, "same email")

	_, err = svc.Signup(ctx, "b@x.com", "alice", "pw123")
	assert.ErrorIs(t, err, ErrConflict, "same username")
}

func TestSignupRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct{ email, username, password string }{
		{"", "alice", "pw"},
		{"a@x.com", "  ", "pw"},
		{"a@x.com", "alice", ""},
		{"a@x.com", "alice", string(make([]byte, 73))},
	}
	for _, tc := range cases {
		_, err := svc.Signup(ctx, tc.email, tc.username, tc.password)
		var apiErr *apperr.Error
		require.True(t, errors.As(err, &apiErr), "%+v", tc)
		assert.Equal(t, "INVALID_INPUT", apiErr.Code)
	}
}

func TestSignupConcurrentSameUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Signup(ctx, fmt.Sprintf("user%d@x.com", i), "alice", "pw123")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestLoginIndistinguishableFailures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Signup(ctx, "a@x.com", "alice", "pw123")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "alice", "wrong")
	_, noSuchUser := svc.Login(ctx, "bob", "pw123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, noSuchUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), noSuchUser.Error())

	user, err := svc.Login(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestLoginIsCaseSensitiveOnUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Signup(ctx, "a@x.com", "alice", "pw123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "Alice", "pw123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type failingUserStore struct{ err error }

func (s failingUserStore) Create(context.Context, *User) error { return s.err }
func (s failingUserStore) FindByUsername(context.Context, string) (*User, error) {
	return nil, s.err
}

func TestStoreFailuresPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(failingUserStore{err: boom}, bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@x.com", "alice", "pw123")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Login(ctx, "alice", "pw123")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
