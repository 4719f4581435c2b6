package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/glglak/elastic-personalization-poc/internal/model"
	"github.com/glglak/elastic-personalization-poc/internal/store"
)

// UserService handles user-related operations.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u == nil || strings.TrimSpace(u.Username) == "" {
		return nil, fmt.Errorf("username is required: %w", model.ErrValidation)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return nil, fmt.Errorf("email %q: %w", u.Email, model.ErrValidation)
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}
