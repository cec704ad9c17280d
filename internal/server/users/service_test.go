package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*User)}
}

func (m *memRepo) Create(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return nil, common.ErrAlreadyExists
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, "example.org")
	s.cost = bcrypt.MinCost
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestService_Register(t *testing.T) {
	s := newTestService(newMemRepo())

	u, err := s.Register(context.Background(), "Alice", "secret")
	require.NoError(t, err)

	assert.Equal(t, "@alice:example.org", u.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), u.CreatedAt)
}

func TestService_RegisterRejects(t *testing.T) {
	s := newTestService(newMemRepo())
	_, err := s.Register(context.Background(), "alice", "secret")
	require.NoError(t, err)

	tests := []struct {
		name      string
		localpart string
		password  string
		wantErr   error
	}{
		{name: "duplicate", localpart: "alice", password: "x", wantErr: common.ErrAlreadyExists},
		{name: "empty localpart", localpart: "", password: "x", wantErr: common.ErrValidation},
		{name: "bad characters", localpart: "al ice", password: "x", wantErr: common.ErrValidation},
		{name: "colon", localpart: "a:b", password: "x", wantErr: common.ErrValidation},
		{name: "empty password", localpart: "bob", password: "", wantErr: common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.localpart, tt.password)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_CheckPassword(t *testing.T) {
	s := newTestService(newMemRepo())
	ctx := context.Background()
	_, err := s.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	u, err := s.CheckPassword(ctx, "@alice:example.org", "secret")
	require.NoError(t, err)
	assert.Equal(t, "@alice:example.org", u.ID)

	_, err = s.CheckPassword(ctx, "@alice:example.org", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.CheckPassword(ctx, "@nobody:example.org", "secret")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}
