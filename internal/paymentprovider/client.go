// Package paymentprovider implements the HTTP client for the PayChangu
// mobile-money API: charge initialization and verification.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable is returned when the provider cannot be reached or answers
// with a server error. Callers treat it as retryable.
var ErrUnavailable = errors.New("payment provider unavailable")

// Client talks to the PayChangu API.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a PayChangu client. apiURL without a trailing slash.
func NewClient(secretKey, apiURL string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// InitializePayment asks the provider to start a mobile-money charge.
func (c *Client) InitializePayment(ctx context.Context, reqParams InitializeRequest) (*InitializeResponse, error) {
	const op = "paymentprovider.InitializePayment"

	req, err := c.newRequest(ctx, http.MethodPost, "/mobile-money/payments/initialize", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var initResp InitializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &initResp, nil
}

// VerifyCharge asks the provider for the final state of a charge.
func (c *Client) VerifyCharge(ctx context.Context, txRef string) (*VerifyResponse, error) {
	const op = "paymentprovider.VerifyCharge"

	req, err := c.newRequest(ctx, http.MethodGet, "/mobile-money/payments/"+txRef+"/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var verifyResp VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&verifyResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &verifyResp, nil
}
