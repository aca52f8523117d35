package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const userColumns = "id, google_id, email, name, picture, created_at"

type Users struct {
	db Gateway
}

func NewUsers(db Gateway) *Users {
	return &Users{db: db}
}

func scanUser(r storage.Row) core.User {
	return core.User{
		ID:        r.Int64("id"),
		GoogleID:  r.String("google_id"),
		Email:     r.String("email"),
		Name:      r.String("name"),
		Picture:   r.String("picture"),
		CreatedAt: r.Time("created_at"),
	}
}

func (u *Users) Create(ctx context.Context, user core.User) (core.User, error) {
	if strings.TrimSpace(user.GoogleID) == "" || strings.TrimSpace(user.Email) == "" {
		return core.User{}, &core.ValidationError{Field: "user", Reason: "google id and email are required"}
	}
	created := now()
	id, err := u.db.Insert(ctx,
		`INSERT INTO users (google_id, email, name, picture, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.GoogleID, user.Email, user.Name, nullable(user.Picture), core.FormatTimestamp(created))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("create user %s: %w", user.Email, ErrConflict)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	user.CreatedAt = created.Truncate(time.Second)
	return user, nil
}

func (u *Users) findOne(ctx context.Context, where string, arg any) (core.User, error) {
	row, ok, err := u.db.QueryOne(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if !ok {
		return core.User{}, ErrNotFound
	}
	return scanUser(row), nil
}

func (u *Users) FindByID(ctx context.Context, id int64) (core.User, error) {
	return u.findOne(ctx, "id = ?", id)
}

func (u *Users) FindByGoogleID(ctx context.Context, googleID string) (core.User, error) {
	return u.findOne(ctx, "google_id = ?", googleID)
}

func (u *Users) FindByEmail(ctx context.Context, email string) (core.User, error) {
	return u.findOne(ctx, "email = ?", email)
}

// Update refreshes the profile fields that may change between logins.
func (u *Users) Update(ctx context.Context, id int64, email, name, picture string) error {
	n, err := u.db.Exec(ctx, `UPDATE users SET email = ?, name = ?, picture = ? WHERE id = ?`,
		email, name, nullable(picture), id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update user %d: %w", id, ErrConflict)
		}
		return fmt.Errorf("update user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkGoogleID attaches a provider identity to an account found by email.
func (u *Users) LinkGoogleID(ctx context.Context, id int64, googleID string) error {
	n, err := u.db.Exec(ctx, `UPDATE users SET google_id = ? WHERE id = ?`, googleID, id)
	if err != nil {
		return fmt.Errorf("link google id for user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertFromProfile resolves a signed-in identity to a user: by google id
// first, then by email (linking the google id, only when the provider
// verified the address), otherwise a new user. The stored profile is
// refreshed in the first two cases.
func (u *Users) UpsertFromProfile(ctx context.Context, p core.User, emailVerified bool) (core.User, error) {
	existing, err := u.FindByGoogleID(ctx, p.GoogleID)
	switch {
	case err == nil:
		return u.refresh(ctx, existing, p)
	case !errors.Is(err, ErrNotFound):
		return core.User{}, err
	}

	existing, err = u.FindByEmail(ctx, p.Email)
	switch {
	case err == nil && !emailVerified:
		return core.User{}, fmt.Errorf("link unverified email %q to user %d: %w", p.Email, existing.ID, ErrConflict)
	case err == nil:
		if err := u.LinkGoogleID(ctx, existing.ID, p.GoogleID); err != nil {
			return core.User{}, err
		}
		existing.GoogleID = p.GoogleID
		return u.refresh(ctx, existing, p)
	case !errors.Is(err, ErrNotFound):
		return core.User{}, err
	}

	return u.Create(ctx, p)
}

func (u *Users) refresh(ctx context.Context, existing, p core.User) (core.User, error) {
	if err := u.Update(ctx, existing.ID, p.Email, p.Name, p.Picture); err != nil {
		return core.User{}, err
	}
	existing.Email = p.Email
	existing.Name = p.Name
	existing.Picture = p.Picture
	return existing, nil
}
