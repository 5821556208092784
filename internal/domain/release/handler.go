package release

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/pkg/response"
)

// Handler serves the update channel to display clients. Bodies are bare,
// matching the sync protocol.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Versions handles GET /api/client/version.
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	manifest, err := h.service.Versions()
	if err != nil {
		log.Error().Err(err).Msg("read release manifest")
		response.Raw(w, http.StatusInternalServerError, map[string]string{"error": "manifest unavailable"})
		return
	}
	response.Raw(w, http.StatusOK, manifest)
}

// Artifact handles GET /api/client/code/{component}.
func (h *Handler) Artifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "component")

	rc, size, err := h.service.Artifact(name)
	if err != nil {
		if errors.Is(err, ErrUnknownComponent) {
			response.Raw(w, http.StatusNotFound, map[string]string{"error": "unknown component"})
			return
		}
		log.Error().Err(err).Str("component", name).Msg("open release artifact")
		response.Raw(w, http.StatusNotFound, map[string]string{"error": "artifact unavailable"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Str("component", name).Msg("artifact stream interrupted")
	}
}
