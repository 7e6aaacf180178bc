// Package videolist implements the HTTP handler for the gated video catalog.
package videolist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
	"github.com/kwachatech/streamgate/internal/lib/sl"
	"github.com/kwachatech/streamgate/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service is the catalog contract this handler needs.
type Service interface {
	ListVideos(ctx context.Context, limit, offset int) ([]*models.Video, error)
}

// Handler processes video listing requests.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New creates a video-list Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary List videos
// @Description Returns the video catalog. Requires an active subscription.
// @Tags Videos
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size, max 100"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.OKResponse
// @Failure 403 {object} response.ErrorResponse "Subscription required"
// @Router /videos [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.video.videolist"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := queryInt(r, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	videos, err := h.service.ListVideos(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list videos", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(videos))
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
