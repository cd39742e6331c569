package testutil

import (
	"context"
	"fmt"

	"github.com/flexisub/flexisub/internal/domain/user"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/types"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	if existing, _ := s.GetByEmail(ctx, u.Email); existing != nil {
		return ierr.NewError("user already exists").
			WithHint("User with this email already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	return s.InMemoryStore.Create(ctx, u.ID, u)
}

func (s *InMemoryUserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	users, err := s.InMemoryStore.List(ctx, nil, func(ctx context.Context, u *user.User, _ interface{}) bool {
		return u.Email == email
	}, nil)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, ierr.NewError("user not found").
			WithHint("User not found").
			WithReportableDetails(map[string]any{
				"email": email,
			}).
			Mark(ierr.ErrNotFound)
	}
	return users[0], nil
}

// Clear clears the user store
func (s *InMemoryUserStore) Clear() {
	s.InMemoryStore.Clear()
}

// SeedUser creates a user with the given role directly in the store
func (s *InMemoryUserStore) SeedUser(ctx context.Context, name, email string, role types.UserRole) *user.User {
	u := user.NewUser(ctx, name, email, role)
	_ = s.Create(ctx, u)
	return u
}
