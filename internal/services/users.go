package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/prompt-vault/internal/domain"
	"github.com/tbourn/prompt-vault/internal/repo"
	"github.com/tbourn/prompt-vault/internal/validation"
)

// CreateUser registers caller with an optional display name and contact.
//
// Errors:
//   - ErrAlreadyExists if caller is already registered (checked first).
//   - ErrInvalidInput if username is present but blank or longer than 50.
func (s *MarketplaceService) CreateUser(ctx context.Context, caller string, username, email *string) (*domain.User, error) {
	var out *domain.User
	err := s.run(ctx, "CreateUser", []attribute.KeyValue{attribute.String("user.id", caller)},
		func(ctx context.Context, tx *gorm.DB) error {
			exists, err := repo.UserExists(ctx, tx, caller)
			if err != nil {
				return err
			}
			if exists {
				return ErrAlreadyExists
			}
			if err := validation.Username(username); err != nil {
				return err
			}

			u := &domain.User{
				ID:       caller,
				Username: username,
				Email:    email,
				JoinedAt: s.now(),
			}
			if err := repo.CreateUser(ctx, tx, u); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return ErrAlreadyExists
				}
				return err
			}
			out = u
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetUser returns the user record of id or ErrUserNotFound.
func (s *MarketplaceService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := s.run(ctx, "GetUser", []attribute.KeyValue{attribute.String("user.id", id)},
		func(ctx context.Context, tx *gorm.DB) error {
			u, err := repo.GetUser(ctx, tx, id)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			if err != nil {
				return err
			}
			out = u
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}
