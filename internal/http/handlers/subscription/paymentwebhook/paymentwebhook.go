// Package paymentwebhook implements the unauthenticated HTTP endpoint the
// payment provider posts charge notifications to. Authenticity comes from an
// HMAC-SHA256 signature over the raw body, not from a bearer token.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/services/subscription"
)

// signatureHeader carries the provider's hex HMAC-SHA256 of the raw body.
const signatureHeader = "X-Api-Signature"

// Event is the provider's notification payload. Unknown fields are ignored.
type Event struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

// Service is the subscription contract this handler needs.
type Service interface {
	ProcessWebhook(ctx context.Context, txRef, status string) error
}

// Handler processes provider webhook notifications.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New creates a payment-webhook Handler.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// ServeHTTP godoc
// @Summary Payment provider webhook
// @Description Receives charge notifications from the payment provider. Verified by HMAC signature.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param X-Api-Signature header string true "Hex HMAC-SHA256 of the request body"
// @Success 200 {object} response.OKResponse
// @Failure 400 {object} response.ErrorResponse "Unknown transaction reference"
// @Failure 401 {object} response.ErrorResponse "Missing or invalid signature"
// @Failure 502 {object} response.ErrorResponse "Payment provider unavailable"
// @Router /subscriptions/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.paymentwebhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !h.validSignature(body, r.Header.Get(signatureHeader)) {
		log.Warn("webhook signature rejected")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if event.TxRef == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing transaction reference"))
		return
	}

	if err := h.service.ProcessWebhook(r.Context(), event.TxRef, event.Status); err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidTransactionReference):
			log.Warn("webhook for unknown reference", slog.String("tx_ref", event.TxRef))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid transaction reference"))
		case errors.Is(err, subscription.ErrPaymentUnavailable):
			// 502 so the provider retries the delivery.
			log.Warn("verification unavailable for webhook", slog.String("tx_ref", event.TxRef))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment verification unavailable"))
		default:
			log.Error("failed to process webhook", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal server error"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"message": "processed"}))
}

func (h *Handler) validSignature(body []byte, got string) bool {
	if got == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(got))
}
