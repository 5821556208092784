package client

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/framelight/framelight/internal/pkg/response"
)

// Handler exposes the client fleet to the admin dashboard, including the
// power relay to each display's local control listener.
type Handler struct {
	repo      Repository
	presence  *Presence
	powerPort string
	relay     *http.Client
}

func NewHandler(repo Repository, presence *Presence, powerPort string) *Handler {
	return &Handler{
		repo:      repo,
		presence:  presence,
		powerPort: powerPort,
		relay:     &http.Client{Timeout: 5 * time.Second},
	}
}

// List handles GET /api/admin/clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.repo.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list clients")
		response.InternalError(w)
		return
	}

	statuses := make([]Status, len(recs))
	for i, rec := range recs {
		statuses[i] = Status{
			Record: rec,
			Online: h.presence.Online(r.Context(), rec.ClientID),
		}
	}
	response.OK(w, statuses)
}

// Power relays a display power command to the client's local listener.
// The server cannot reach a client behind NAT it has never seen, so the
// target address is the one recorded on the client's last sync.
func (h *Handler) Power(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")
	if action != "on" && action != "off" {
		response.BadRequest(w, "Action must be 'on' or 'off'")
		return
	}

	rec, err := h.repo.Get(r.Context(), clientID)
	if err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("load client")
		response.InternalError(w)
		return
	}
	if rec == nil {
		response.NotFound(w, "Unknown client")
		return
	}
	if rec.LastAddr == "" {
		response.Conflict(w, "Client has no known address")
		return
	}

	target := fmt.Sprintf("http://%s/power?state=%s",
		net.JoinHostPort(rec.LastAddr, h.powerPort), action)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, target, nil)
	if err != nil {
		response.InternalError(w)
		return
	}

	resp, err := h.relay.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("power relay unreachable")
		response.Error(w, http.StatusBadGateway, "CLIENT_UNREACHABLE", "Client did not respond")
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		response.Error(w, http.StatusBadGateway, "CLIENT_ERROR",
			fmt.Sprintf("Client returned status %d", resp.StatusCode))
		return
	}
	response.OK(w, map[string]string{"client_id": clientID, "power": action})
}

// AdminRoutes mounts the fleet endpoints under the authenticated admin API.
func (h *Handler) AdminRoutes(auth func(next http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)
	r.Get("/", h.List)
	r.Post("/{id}/power/{action}", h.Power)
	return r
}
