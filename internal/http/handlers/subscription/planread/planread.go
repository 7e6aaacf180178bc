// Package planread implements the HTTP handler returning one plan by id.
package planread

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
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
}

// Handler processes single-plan read requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New creates a plan-read Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Get a subscription plan
// @Description Returns one plan by id.
// @Tags Plans
// @Security BearerAuth
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.OKResponse
// @Failure 404 {object} response.ErrorResponse "Unknown plan"
// @Router /plans/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.planread"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	planID := chi.URLParam(r, "id")
	if planID == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing plan id"))
		return
	}

	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		if errors.Is(err, subscription.ErrPlanNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscription plan not found"))
			return
		}
		log.Error("failed to get plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(plan))
}
