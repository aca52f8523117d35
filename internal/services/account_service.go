package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/records"
)

// AccountService turns a verified identity into a local user.
type AccountService struct {
	users      *records.Users
	categories *records.Categories
	logger     *slog.Logger
}

func NewAccountService(users *records.Users, categories *records.Categories, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		users:      users,
		categories: categories,
		logger:     logger.With("component", "account_service"),
	}
}

// SignIn upserts the user behind profile and makes sure the default
// categories exist. Seeding is idempotent, so repeated sign-ins are safe.
func (s *AccountService) SignIn(ctx context.Context, profile identity.Profile) (core.User, error) {
	user, err := s.users.UpsertFromProfile(ctx, profile.User(), profile.VerifiedEmail)
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}

	seeded, err := s.categories.SeedDefaults(ctx, user.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("seed categories for user %d: %w", user.ID, err)
	}
	if seeded > 0 {
		s.logger.InfoContext(ctx, "Seeded default categories", "user_id", user.ID, "count", seeded)
	}
	return user, nil
}
