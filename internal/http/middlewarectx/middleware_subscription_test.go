package middlewarectx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/services/subscription"
)

type GuardMock struct{ mock.Mock }

func (m *GuardMock) RequireActive(user *models.User) error {
	return m.Called(user).Error(0)
}

func requestWithPrincipal(user *models.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	if user == nil {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), PrincipalKey, user))
}

func TestSubscriptionMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		guardErr       error
		guardCalled    bool
		wantStatusCode int
		wantReached    bool
	}{
		{
			name:           "entitled principal passes",
			user:           &models.User{ID: "user-1", IsSubscribed: true},
			guardCalled:    true,
			wantStatusCode: http.StatusOK,
			wantReached:    true,
		},
		{
			name:           "lapsed principal gets 403, not 401",
			user:           &models.User{ID: "user-1", IsSubscribed: true},
			guardErr:       subscription.ErrSubscriptionRequired,
			guardCalled:    true,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing principal",
			user:           nil,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := new(GuardMock)
			if tt.guardCalled {
				guard.On("RequireActive", tt.user).Return(tt.guardErr).Once()
			}

			var reached bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			SubscriptionMiddleware(guard, newNoopLogger())(next).ServeHTTP(rec, requestWithPrincipal(tt.user))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantReached, reached)
			guard.AssertExpectations(t)
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		user           *models.User
		wantStatusCode int
		wantReached    bool
	}{
		{
			name:           "admin passes",
			user:           &models.User{ID: "user-1", IsAdmin: true},
			wantStatusCode: http.StatusOK,
			wantReached:    true,
		},
		{
			name:           "non-admin gets 403",
			user:           &models.User{ID: "user-2"},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "missing principal",
			user:           nil,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			AdminMiddleware(newNoopLogger())(next).ServeHTTP(rec, requestWithPrincipal(tt.user))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}
