// Package planlist implements the HTTP handler returning the plan catalog.
// Listing plans requires authentication but not an active subscription.
package planlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
)

// Service is the subscription contract this handler needs.
type Service interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.SubscriptionPlan, error)
}

// Handler processes plan listing requests.
type Handler struct {
	log     *slog.Logger
	service Service
	// activeOnly restricts the listing to purchasable plans; the admin
	// route mounts the same handler with it off.
	activeOnly bool
}

// New creates a plan-list Handler.
func New(log *slog.Logger, service Service, activeOnly bool) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		activeOnly: activeOnly,
	}
}

// ServeHTTP godoc
// @Summary List subscription plans
// @Description Returns the catalog of purchasable plans.
// @Tags Plans
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.OKResponse
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.planlist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.service.ListPlans(r.Context(), h.activeOnly)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(plans))
}
