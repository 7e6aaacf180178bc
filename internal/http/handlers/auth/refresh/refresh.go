// Package refresh implements the HTTP handler that exchanges a refresh
// token for a new access token.
package refresh

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
	"github.com/kwachatech/streamgate/internal/services/auth"
)

// Request is the refresh input.
type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Service is the authentication contract this handler needs.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Handler processes token refresh requests.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New creates a refresh Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Refresh an access token
// @Description Verifies a refresh token and mints a new access token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Refresh token"
// @Success 200 {object} response.OKResponse
// @Failure 401 {object} response.ErrorResponse "Invalid refresh token"
// @Router /refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

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

	access, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Info("refresh rejected")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid refresh token"))
			return
		}
		log.Error("refresh failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"access_token": access,
		"token_type":   "bearer",
	}))
}
