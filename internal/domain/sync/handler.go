package sync

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/middleware"
	"github.com/framelight/framelight/internal/pkg/response"
	"github.com/framelight/framelight/internal/pkg/validator"
)

// Handler exposes POST /api/sync to display clients.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Sync handles one reconciliation request. The response body is the bare
// plan, not the admin envelope; clients parse it directly.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{"error": "validation failed", "details": errs})
		return
	}

	resp, err := h.service.Reconcile(r.Context(), &req, middleware.ClientIP(r))
	if err != nil {
		log.Error().Err(err).Str("client_id", req.ClientID).Msg("reconcile failed")
		response.Raw(w, http.StatusInternalServerError, map[string]string{"error": "reconciliation failed"})
		return
	}

	log.Info().
		Str("client_id", req.ClientID).
		Int("reported", len(req.FileHashes)).
		Int("to_download", len(resp.ToDownload)).
		Int("to_delete", len(resp.ToDelete)).
		Msg("sync")
	response.Raw(w, http.StatusOK, resp)
}
