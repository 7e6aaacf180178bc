// Package paymentverify implements the HTTP handler that confirms a charge
// with the payment provider and activates the subscription. Replaying an
// already-applied reference returns the current state without extending it.
package paymentverify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/services/subscription"
)

// Service is the subscription contract this handler needs.
type Service interface {
	VerifyPayment(ctx context.Context, txRef string) (*models.PaymentVerification, error)
}

// Handler processes payment verification requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New creates a payment-verify Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Verify a subscription payment
// @Description Confirms the charge with the provider and activates the subscription.
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Param tx_ref path string true "Transaction reference"
// @Success 200 {object} response.OKResponse
// @Failure 400 {object} response.ErrorResponse "Unknown transaction reference"
// @Failure 402 {object} response.ErrorResponse "Charge not completed"
// @Failure 502 {object} response.ErrorResponse "Payment provider unavailable"
// @Router /subscriptions/verify-payment/{tx_ref} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.paymentverify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	txRef := chi.URLParam(r, "tx_ref")
	if txRef == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing transaction reference"))
		return
	}

	verification, err := h.service.VerifyPayment(r.Context(), txRef)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidTransactionReference):
			log.Info("unknown transaction reference", slog.String("tx_ref", txRef))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid transaction reference"))
		case errors.Is(err, subscription.ErrPaymentNotCompleted):
			log.Info("payment not completed", slog.String("tx_ref", txRef))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("payment not completed"))
		case errors.Is(err, subscription.ErrPaymentUnavailable):
			log.Warn("payment provider unavailable", slog.String("tx_ref", txRef))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment verification unavailable, try again later"))
		default:
			log.Error("failed to verify payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal server error"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(verification))
}
