package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwachatech/streamgate/internal/lib/jwt"
	"github.com/kwachatech/streamgate/internal/lib/password"
	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/storage/repository"
)

type UsersMock struct{ mock.Mock }

func (m *UsersMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UsersMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UsersMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UsersMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UsersMock) SetResetToken(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *UsersMock) UpdatePasswordAndClearResetToken(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *UsersMock) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MailMock struct{ mock.Mock }

func (m *MailMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func newTestMaker() jwt.Maker {
	return jwt.NewMaker("test-secret", 2*time.Hour, 168*time.Hour, 30*time.Minute)
}

func testUser(t *testing.T, rawPassword string) *models.User {
	t.Helper()
	hash, err := password.GetHash(rawPassword)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PhoneNumber:  "+265991234567",
		PasswordHash: hash,
	}
}

func TestRegister_Success(t *testing.T) {
	users := new(UsersMock)
	service := New(users, newTestMaker(), new(MailMock))

	users.On("GetUserByUsername", mock.Anything, "alice").Return(nil, repository.ErrNotFound).Once()
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, repository.ErrNotFound).Once()
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" && !u.IsSubscribed && !u.IsAdmin && u.PasswordHash != "secret123"
	})).Return("user-1", nil).Once()

	user, pair, err := service.Register(context.Background(), RegisterParams{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "secret123",
		FirstName: "Alice",
		LastName:  "Banda",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	users := new(UsersMock)
	service := New(users, newTestMaker(), new(MailMock))

	users.On("GetUserByUsername", mock.Anything, "alice").
		Return(&models.User{ID: "user-1", Username: "alice"}, nil).Once()

	_, _, err := service.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "new@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(UsersMock)
	service := New(users, newTestMaker(), new(MailMock))

	users.On("GetUserByUsername", mock.Anything, "bob").Return(nil, repository.ErrNotFound).Once()
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{ID: "user-1"}, nil).Once()

	_, _, err := service.Register(context.Background(), RegisterParams{
		Username: "bob",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_InsertRace(t *testing.T) {
	users := new(UsersMock)
	service := New(users, newTestMaker(), new(MailMock))

	users.On("GetUserByUsername", mock.Anything, "alice").Return(nil, repository.ErrNotFound).Once()
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, repository.ErrNotFound).Once()
	users.On("CreateUser", mock.Anything, mock.Anything).Return("", repository.ErrDuplicate).Once()

	_, _, err := service.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_Success(t *testing.T) {
	users := new(UsersMock)
	service := New(users, newTestMaker(), new(MailMock))
	user := testUser(t, "secret123")

	users.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil).Once()

	pair, err := service.Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLogin_IndistinguishableFailures(t *testing.T) {
	user := testUser(t, "secret123")

	tests := []struct {
		name       string
		setupMocks func(m *UsersMock)
		password   string
	}{
		{
			name: "unknown username",
			setupMocks: func(m *UsersMock) {
				m.On("GetUserByUsername", mock.Anything, "alice").Return(nil, repository.ErrNotFound).Once()
			},
			password: "secret123",
		},
		{
			name: "wrong password",
			setupMocks: func(m *UsersMock) {
				m.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil).Once()
			},
			password: "not-the-password",
		},
	}
	var errs []error
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			tt.setupMocks(users)
			service := New(users, newTestMaker(), new(MailMock))

			_, err := service.Login(context.Background(), "alice", tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			errs = append(errs, err)
		})
	}
	// The two failures must be literally the same error value.
	require.Len(t, errs, 2)
	assert.Equal(t, errs[0], errs[1])
}

func TestRefresh_Success(t *testing.T) {
	users := new(UsersMock)
	maker := newTestMaker()
	service := New(users, maker, new(MailMock))
	user := testUser(t, "secret123")

	refresh, err := maker.GenerateRefreshToken("alice")
	require.NoError(t, err)

	users.On("GetUserByUsername", mock.Anything, "alice").Return(user, nil).Once()

	access, err := service.Refresh(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := maker.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	users := new(UsersMock)
	maker := newTestMaker()
	service := New(users, maker, new(MailMock))

	access, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "")
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_FreshLookup(t *testing.T) {
	users := new(UsersMock)
	maker := newTestMaker()
	service := New(users, maker, new(MailMock))

	token, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "")
	require.NoError(t, err)

	// The store returns newer state than the claims carried at issuance.
	expiry := time.Now().Add(30 * 24 * time.Hour)
	fresh := &models.User{ID: "user-1", Username: "alice", IsSubscribed: true, SubscriptionExpiry: &expiry}
	users.On("GetUserByID", mock.Anything, "user-1").Return(fresh, nil).Once()

	user, err := service.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, user.IsSubscribed)
	users.AssertExpectations(t)
}

func TestResolve_DeletedAccount(t *testing.T) {
	users := new(UsersMock)
	maker := newTestMaker()
	service := New(users, maker, new(MailMock))

	token, err := maker.GenerateAccessToken("alice", "user-1", "alice@example.com", "")
	require.NoError(t, err)

	users.On("GetUserByID", mock.Anything, "user-1").Return(nil, repository.ErrNotFound).Once()

	_, err = service.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	users := new(UsersMock)
	mail := new(MailMock)
	service := New(users, newTestMaker(), mail)

	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound).Once()

	err := service.ForgotPassword(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	mail.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestForgotPassword_QueuesMail(t *testing.T) {
	users := new(UsersMock)
	mail := new(MailMock)
	service := New(users, newTestMaker(), mail)
	user := testUser(t, "secret123")

	users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
	users.On("SetResetToken", mock.Anything, "user-1", mock.Anything).Return(nil).Once()
	mail.On("Publish", "password_reset", mock.MatchedBy(func(msg any) bool {
		reset, ok := msg.(models.ResetEmail)
		return ok && reset.Email == "alice@example.com" && reset.Token != ""
	})).Return(nil).Once()

	err := service.ForgotPassword(context.Background(), "alice@example.com")
	require.NoError(t, err)
	users.AssertExpectations(t)
	mail.AssertExpectations(t)
}

func TestResetPassword_Success(t *testing.T) {
	users := new(UsersMock)
	maker := newTestMaker()
	service := New(users, maker, new(MailMock))

	token, err := maker.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	user := testUser(t, "secret123")
	user.ResetToken = &token
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
	users.On("UpdatePasswordAndClearResetToken", mock.Anything, "user-1", mock.Anything).Return(nil).Once()

	err = service.ResetPassword(context.Background(), token, "newsecret456")
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestResetPassword_StoredCopyMismatch(t *testing.T) {
	users := new(UsersMock)
	maker := newTestMaker()
	service := New(users, maker, new(MailMock))

	token, err := maker.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	// A newer reset was requested after this token was minted.
	other := "some-other-token"
	user := testUser(t, "secret123")
	user.ResetToken = &other
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

	err = service.ResetPassword(context.Background(), token, "newsecret456")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	users.AssertNotCalled(t, "UpdatePasswordAndClearResetToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_GarbageToken(t *testing.T) {
	service := New(new(UsersMock), newTestMaker(), new(MailMock))

	err := service.ResetPassword(context.Background(), "garbage", "newsecret456")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestDeleteAccount(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{"success", nil, nil},
		{"missing user", repository.ErrNotFound, ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UsersMock)
			users.On("DeleteUser", mock.Anything, "user-1").Return(tt.repoErr).Once()
			service := New(users, newTestMaker(), new(MailMock))

			err := service.DeleteAccount(context.Background(), "user-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
