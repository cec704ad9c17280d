package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"golang.org/x/crypto/bcrypt"
)

var localpartRe = regexp.MustCompile(`^[a-z0-9._=\-/]+$`)

type Service struct {
	repo       Repository
	serverName string
	cost       int
	now        func() time.Time
}

func NewService(repo Repository, serverName string) *Service {
	return &Service{
		repo:       repo,
		serverName: serverName,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// UserID qualifies localpart with the server name.
func (s *Service) UserID(localpart string) string {
	return "@" + localpart + ":" + s.serverName
}

// Register creates a local account. A taken user id yields
// common.ErrAlreadyExists, a malformed localpart or empty password
// common.ErrValidation.
func (s *Service) Register(ctx context.Context, localpart, password string) (*User, error) {
	localpart = strings.ToLower(localpart)
	if !localpartRe.MatchString(localpart) {
		return nil, fmt.Errorf("localpart %q: %w", localpart, common.ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("empty password: %w", common.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &User{
		ID:           s.UserID(localpart),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// CheckPassword returns the user when password matches, common.ErrUnauthorized
// otherwise.
func (s *Service) CheckPassword(ctx context.Context, userID, password string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	return user, nil
}
