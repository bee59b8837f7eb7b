// Package application contains use-case orchestration services. Every
// operation resolves the caller from an identity-provider id first and
// scopes all lookups to the resolved user.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
	"github.com/ericfisherdev/reviewdash/internal/domain/model"
	"github.com/ericfisherdev/reviewdash/internal/domain/port/driven"
)

// resolveUser maps the caller's identity-provider id to the stored user.
func resolveUser(ctx context.Context, users driven.UserStore, clerkID string) (*model.User, error) {
	if strings.TrimSpace(clerkID) == "" {
		return nil, apperror.Unauthenticated("caller identity is missing")
	}

	user, err := users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user", clerkID)
	}
	return user, nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// UserService keeps the local user table in step with the identity provider.
type UserService struct {
	users  driven.UserStore
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users driven.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: loggerOrDefault(logger)}
}

// SaveUser records the caller on sign-in and returns their user id. Calling
// it again with the same email is a no-op; a changed email is patched.
func (s *UserService) SaveUser(ctx context.Context, clerkID, email string) (string, error) {
	const op = "saveUserReview"

	if strings.TrimSpace(clerkID) == "" {
		return "", fmt.Errorf("%s: %w", op, apperror.Unauthenticated("caller identity is missing"))
	}
	email = strings.TrimSpace(email)

	existing, err := s.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		if existing.Email != email {
			if err := s.users.UpdateEmail(ctx, existing.ID, email); err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			s.logger.Info("user email updated", "user_id", existing.ID)
		}
		return existing.ID, nil
	}

	created, err := s.users.Insert(ctx, model.User{ClerkID: clerkID, Email: email, CreatedAt: utcNow()})
	if errors.Is(err, driven.ErrUserAlreadyExists) {
		// A concurrent sign-in won the insert.
		existing, err = s.users.GetByClerkID(ctx, clerkID)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if existing == nil {
			return "", fmt.Errorf("%s: %w", op, apperror.NotFound("user", clerkID))
		}
		return existing.ID, nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user created", "user_id", created.ID)
	return created.ID, nil
}
