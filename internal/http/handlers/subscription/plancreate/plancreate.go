// Package plancreate implements the admin HTTP handler for adding a
// subscription plan to the catalog.
package plancreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
	"github.com/kwachatech/streamgate/internal/services/subscription"
)

// Request is the plan creation input.
type Request struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Description  string  `json:"description" validate:"max=500"`
	Price        float64 `json:"price" validate:"gte=0"`
	Currency     string  `json:"currency" validate:"required,min=3,max=3"`
	DurationDays int     `json:"duration_days" validate:"required,gt=0"`
	IsActive     bool    `json:"is_active"`
}

// Service is the subscription contract this handler needs.
type Service interface {
	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (string, error)
}

// Handler processes plan creation requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New creates a plan-create Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Create a subscription plan
// @Description Adds a plan to the catalog. Admin only.
// @Tags Plans
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body Request true "Plan fields"
// @Success 200 {object} response.OKResponse
// @Failure 400 {object} response.ErrorResponse "Plan fields violate invariants"
// @Router /admin/plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.plancreate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	id, err := h.service.CreatePlan(r.Context(), models.SubscriptionPlan{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		DurationDays: req.DurationDays,
		IsActive:     req.IsActive,
	})
	if err != nil {
		if errors.Is(err, subscription.ErrPlanInvalid) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid subscription plan"))
			return
		}
		log.Error("failed to create plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("plan created", slog.String("plan_id", id), slog.String("name", req.Name))
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}
