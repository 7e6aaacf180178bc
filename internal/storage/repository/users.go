package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kwachatech/streamgate/internal/models"
)

const userColumns = `id, first_name, last_name, username, phone_number, email,
			      is_admin, password_hash, reset_token, avatar_url,
			      is_subscribed, subscription_expiry, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var resetToken, avatarURL sql.NullString
	var subscriptionExpiry sql.NullTime
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username,
		&u.PhoneNumber, &u.Email, &u.IsAdmin, &u.PasswordHash,
		&resetToken, &avatarURL, &u.IsSubscribed, &subscriptionExpiry,
		&u.CreatedAt); err != nil {
		return nil, err
	}
	if resetToken.Valid {
		u.ResetToken = &resetToken.String
	}
	if avatarURL.Valid {
		u.AvatarURL = &avatarURL.String
	}
	if subscriptionExpiry.Valid {
		u.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	return u, nil
}

// CreateUser saves a new principal and returns its generated id.
// Username and email collisions surface as ErrDuplicate.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"

	var newID string
	query := `INSERT INTO users (first_name, last_name, username, phone_number,
			      email, is_admin, password_hash, is_subscribed, subscription_expiry)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.Username, user.PhoneNumber,
		user.Email, user.IsAdmin, user.PasswordHash, user.IsSubscribed,
		user.SubscriptionExpiry).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername returns the principal with the given username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID returns the principal with the given id.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail returns the principal with the given email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetResetToken stores a pending password-reset token on the user row.
func (s *Storage) SetResetToken(ctx context.Context, userID, token string) error {
	const op = "storage.SetResetToken"

	query := `UPDATE users
			  SET reset_token = $1
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, token, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UpdatePasswordAndClearResetToken sets the new password hash and removes
// the single-use reset token in one statement.
func (s *Storage) UpdatePasswordAndClearResetToken(ctx context.Context, userID, passwordHash string) error {
	const op = "storage.UpdatePasswordAndClearResetToken"

	query := `UPDATE users
			  SET password_hash = $1,
			      reset_token = NULL
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// DeleteUser removes the principal. Owned records (payments, likes,
// comments) cascade at the schema level.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteUser"

	query := `DELETE FROM users WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
