// Package health implements the liveness endpoint.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/kwachatech/streamgate/internal/http/response"
)

// New returns the health check handler.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.OKWithData(map[string]any{"status": "healthy"}))
	}
}
