package paymentprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_InitializePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/mobile-money/payments/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sec-key", r.Header.Get("Authorization"))

		var body InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sub-abc", body.Reference)
		assert.Equal(t, 2500.0, body.Amount)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(InitializeResponse{
			Status:     "success",
			PaymentURL: "https://pay.example/abc",
			Reference:  "sub-abc",
		})
	}))
	defer srv.Close()

	client := NewClient("sec-key", srv.URL)
	resp, err := client.InitializePayment(context.Background(), InitializeRequest{
		Amount:       2500,
		Currency:     "MWK",
		MobileNumber: "+265991234567",
		Network:      "airtel",
		Reference:    "sub-abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", resp.PaymentURL)
}

func TestClient_VerifyCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/mobile-money/payments/sub-abc/verify", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(VerifyResponse{
			Status:   ChargeStatusSuccessful,
			Amount:   2500,
			Currency: "MWK",
		})
	}))
	defer srv.Close()

	client := NewClient("sec-key", srv.URL)
	resp, err := client.VerifyCharge(context.Background(), "sub-abc")
	require.NoError(t, err)
	assert.Equal(t, ChargeStatusSuccessful, resp.Status)
	assert.Equal(t, 2500.0, resp.Amount)
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("sec-key", srv.URL)

	_, err := client.VerifyCharge(context.Background(), "sub-abc")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = client.InitializePayment(context.Background(), InitializeRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient("sec-key", srv.URL)
	_, err := client.VerifyCharge(context.Background(), "sub-abc")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("sec-key", srv.URL)
	_, err := client.VerifyCharge(context.Background(), "sub-unknown")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}
