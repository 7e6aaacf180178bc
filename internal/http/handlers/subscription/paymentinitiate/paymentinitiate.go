// Package paymentinitiate implements the HTTP handler that starts a
// mobile-money charge for a subscription plan.
package paymentinitiate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kwachatech/streamgate/internal/http/middlewarectx"
	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/services/subscription"
)

// Request is the payment initiation input.
type Request struct {
	PlanID      string `json:"plan_id" validate:"required,uuid"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Network     string `json:"network" validate:"required,max=30"`
	Email       string `json:"email" validate:"omitempty,email"`
	CallbackURL string `json:"callback_url" validate:"max=500"`
	ReturnURL   string `json:"return_url" validate:"max=500"`
}

// Service is the subscription contract this handler needs.
type Service interface {
	InitiatePayment(ctx context.Context, user *models.User, params subscription.InitiateParams) (*subscription.PaymentInitiation, error)
}

// Handler processes payment initiation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New creates a payment-initiate Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Initiate a subscription payment
// @Description Starts a mobile-money charge for a plan and returns the payment URL and transaction reference.
// @Tags Subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body Request true "Plan and mobile-money details"
// @Success 200 {object} response.OKResponse
// @Failure 404 {object} response.ErrorResponse "Unknown or inactive plan"
// @Failure 502 {object} response.ErrorResponse "Payment provider unavailable"
// @Router /subscriptions/initiate-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.paymentinitiate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.Principal(r.Context())
	if !ok {
		log.Error("principal missing from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired token"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	initiation, err := h.service.InitiatePayment(r.Context(), user, subscription.InitiateParams{
		PlanID:      req.PlanID,
		PhoneNumber: req.PhoneNumber,
		Network:     req.Network,
		Email:       req.Email,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrPlanNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription plan not found"))
		case errors.Is(err, subscription.ErrPaymentUnavailable):
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment provider unavailable, try again later"))
		default:
			log.Error("failed to initiate payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal server error"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(initiation))
}
