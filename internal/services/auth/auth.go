// Package auth contains the business logic for registration, credential
// verification, token issuance and session resolution.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/kwachatech/streamgate/internal/lib/jwt"
	"github.com/kwachatech/streamgate/internal/lib/password"
	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/rabbitmq"
	"github.com/kwachatech/streamgate/internal/storage/repository"
)

// Domain failures produced by this service. The HTTP boundary maps them to
// status codes; none of them reveal which credential check failed.
var (
	// ErrInvalidCredentials covers a missing user, a wrong password and any
	// token-verification failure alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidResetToken is returned for an unknown, expired or
	// already-used password-reset token.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrUserNotFound is returned when the referenced principal is absent.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository is the store contract this service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, token string) error
	UpdatePasswordAndClearResetToken(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error
}

// MailPublisher queues outbound account mail.
type MailPublisher interface {
	Publish(routingKey string, message any) error
}

// TokenPair is what a successful login or registration hands to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterParams carries the profile fields accepted at registration.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// AuthService verifies credentials, mints tokens and resolves sessions.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	mail     MailPublisher
}

// New creates a new AuthService.
func New(users UserRepository, jwtMaker jwt.Maker, mail MailPublisher) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		mail:     mail,
	}
}

// Register creates a new principal and issues its first token pair.
// New accounts start unsubscribed with no expiry.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*models.User, TokenPair, error) {
	const op = "auth.Register"

	if _, err := s.users.GetUserByUsername(ctx, params.Username); err == nil {
		return nil, TokenPair{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.users.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(params.Password)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Username:     params.Username,
		PhoneNumber:  params.PhoneNumber,
		Email:        params.Email,
		PasswordHash: hashed,
		IsAdmin:      false,
		IsSubscribed: false,
	}
	newID, err := s.users.CreateUser(ctx, user)
	if err != nil {
		// Unique-index backstop for the lookup/insert race.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, TokenPair{}, ErrUsernameTaken
		}
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	user.ID = newID

	pair, err := s.issueSession(&user)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	return &user, pair, nil
}

// Login verifies a username/password pair and issues a token pair. A missing
// user and a wrong password are indistinguishable in both the returned error
// and, via the dummy compare, in timing.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (TokenPair, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			password.CompareDummy(rawPassword)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueSession(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// issueSession mints the access/refresh pair for a principal.
func (s *AuthService) issueSession(user *models.User) (TokenPair, error) {
	access, err := s.jwtMaker.GenerateAccessToken(user.Username, user.ID, user.Email, user.PhoneNumber)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.jwtMaker.GenerateRefreshToken(user.Username)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh verifies a refresh token and mints a new access token for the same
// subject. The password is not re-checked and the refresh token is not
// rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "auth.Refresh"

	claims, err := s.jwtMaker.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	user, err := s.users.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	access, err := s.jwtMaker.GenerateAccessToken(user.Username, user.ID, user.Email, user.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return access, nil
}

// Resolve recovers the live principal behind an access token. The returned
// record always comes from a fresh store lookup so that subscription state
// and account existence reflect the present, not the claims at issuance. Any
// failure collapses to ErrInvalidCredentials.
func (s *AuthService) Resolve(ctx context.Context, tokenStr string) (*models.User, error) {
	const op = "auth.Resolve"

	claims, err := s.jwtMaker.ParseAccessToken(tokenStr)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted account holding a still-unexpired token.
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ForgotPassword issues a reset token for the account behind email, stores
// it on the user row and queues the reset mail. A missing account is not an
// error to the caller; the response must not confirm whether the email
// exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateResetToken(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.ResetEmail{Email: email, Token: token}
	if err := s.mail.Publish(rabbitmq.ResetRoutingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword verifies a reset token against both its signature and the
// stored single-use copy, then replaces the password hash and clears the
// token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"

	claims, err := s.jwtMaker.ParseResetToken(token)
	if err != nil {
		return ErrInvalidResetToken
	}
	user, err := s.users.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.ResetToken == nil || *user.ResetToken != token {
		return ErrInvalidResetToken
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePasswordAndClearResetToken(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteAccount removes a principal; dependent owned records cascade.
// Outstanding tokens for the account die at the next Resolve.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	const op = "auth.DeleteAccount"

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
