package photo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminRoutes mounts catalog management under the authenticated admin API.
func (h *Handler) AdminRoutes(auth func(next http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Post("/", h.Upload)
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/pair", h.Pair)
	r.Post("/{id}/unpair", h.Unpair)
	r.Get("/{id}/thumbnail", h.Thumbnail)

	return r
}

// PublicRoutes mounts the photo byte endpoint used by display clients.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.GetFile)
	return r
}
