// Package status implements the HTTP handler returning the calling
// principal's computed subscription state.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/middlewarectx"
	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
)

// Service is the subscription contract this handler needs.
type Service interface {
	Status(ctx context.Context, user *models.User) (*models.SubscriptionStatus, error)
}

// Handler processes subscription status requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New creates a status Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get subscription status
// @Description Returns the caller's computed entitlement and current plan.
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.OKResponse
// @Router /subscriptions/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"

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

	status, err := h.service.Status(r.Context(), user)
	if err != nil {
		log.Error("failed to compute status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(status))
}
