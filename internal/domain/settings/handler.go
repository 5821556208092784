package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/framelight/framelight/internal/pkg/response"
)

// Handler serves the client config endpoint and the admin settings API.
type Handler struct {
	store *Store
}

// NewHandler creates settings handler
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// GetConfig handles GET /api/config. Served bare: deployed display clients
// parse this body directly.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	response.Raw(w, http.StatusOK, snap.Settings)
}

// Get handles GET /api/admin/settings
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.store.Snapshot().Settings)
}

// Update handles PUT /api/admin/settings
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var cfg Settings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	snap, details, err := h.store.Update(cfg)
	if err != nil {
		if details != nil {
			response.ValidationError(w, details)
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, snap.Settings)
}

// AdminRoutes returns the authenticated settings router.
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Get)
	r.Put("/", h.Update)

	return r
}
