package paymentwebhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kwachatech/streamgate/internal/services/subscription"
)

const testSecret = "webhook-test-secret"

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ProcessWebhook(ctx context.Context, txRef, status string) error {
	return m.Called(ctx, txRef, status).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		signature      func(body []byte) string
		mockErr        error
		mockCalled     bool
		wantStatusCode int
	}{
		{
			name:           "valid success event",
			body:           `{"tx_ref":"sub-abc","status":"successful"}`,
			signature:      sign,
			mockCalled:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing signature",
			body:           `{"tx_ref":"sub-abc","status":"successful"}`,
			signature:      func([]byte) string { return "" },
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong signature",
			body:           `{"tx_ref":"sub-abc","status":"successful"}`,
			signature:      func([]byte) string { return "deadbeef" },
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:      "signature over different body",
			body:      `{"tx_ref":"sub-abc","status":"successful"}`,
			signature:      func([]byte) string { return sign([]byte(`{"tx_ref":"sub-other"}`)) },
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "malformed json",
			body:           "not json",
			signature:      sign,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing tx_ref",
			body:           `{"status":"successful"}`,
			signature:      sign,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown reference",
			body:           `{"tx_ref":"sub-missing","status":"successful"}`,
			signature:      sign,
			mockErr:        subscription.ErrInvalidTransactionReference,
			mockCalled:     true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "provider unavailable asks for redelivery",
			body:           `{"tx_ref":"sub-abc","status":"successful"}`,
			signature:      sign,
			mockErr:        subscription.ErrPaymentUnavailable,
			mockCalled:     true,
			wantStatusCode: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			if tt.mockCalled {
				serviceMock.On("ProcessWebhook", mock.Anything, mock.Anything, mock.Anything).
					Return(tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), serviceMock, testSecret)

			body := []byte(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/subscriptions/webhook", bytes.NewReader(body))
			if sig := tt.signature(body); sig != "" {
				req.Header.Set("X-Api-Signature", sig)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if !tt.mockCalled {
				serviceMock.AssertNotCalled(t, "ProcessWebhook", mock.Anything, mock.Anything, mock.Anything)
			} else {
				serviceMock.AssertExpectations(t)
			}
		})
	}
}
