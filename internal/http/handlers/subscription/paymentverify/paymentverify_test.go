package paymentverify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/services/subscription"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) VerifyPayment(ctx context.Context, txRef string) (*models.PaymentVerification, error) {
	args := m.Called(ctx, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentVerification), args.Error(1)
}

func newTestRouter(service Service) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	router := chi.NewRouter()
	router.Get("/subscriptions/verify-payment/{tx_ref}", New(log, service).ServeHTTP)
	return router
}

func TestPaymentVerifyHandler(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 30)

	cases := []struct {
		name           string
		txRef          string
		mockResult     *models.PaymentVerification
		mockError      error
		expectedStatus int
	}{
		{
			name:  "Success",
			txRef: "sub-abc",
			mockResult: &models.PaymentVerification{
				Status:               "active",
				Amount:               2500,
				Currency:             "MWK",
				TransactionReference: "sub-abc",
				PlanID:               "plan-1",
				ExpiryDate:           &expiry,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "UnknownReference",
			txRef:          "sub-missing",
			mockError:      subscription.ErrInvalidTransactionReference,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "NotCompleted",
			txRef:          "sub-pending",
			mockError:      subscription.ErrPaymentNotCompleted,
			expectedStatus: http.StatusPaymentRequired,
		},
		{
			name:           "ProviderUnavailable",
			txRef:          "sub-abc",
			mockError:      subscription.ErrPaymentUnavailable,
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := new(ServiceMock)
			service.On("VerifyPayment", mock.Anything, tc.txRef).
				Return(tc.mockResult, tc.mockError).Once()

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/verify-payment/"+tc.txRef, nil)
			rec := httptest.NewRecorder()
			newTestRouter(service).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedStatus == http.StatusOK {
				var body struct {
					Data models.PaymentVerification `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "sub-abc", body.Data.TransactionReference)
				require.NotNil(t, body.Data.ExpiryDate)
				assert.WithinDuration(t, expiry, *body.Data.ExpiryDate, time.Second)
			}
			service.AssertExpectations(t)
		})
	}
}
