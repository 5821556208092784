package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PowerController switches the attached display panel. Implementations
// shell out to whatever the hardware offers (CEC, DPMS, a GPIO relay).
type PowerController interface {
	SetPower(ctx context.Context, on bool) error
}

// NopController accepts commands and does nothing. Used on hosts with no
// controllable panel so the server relay still gets a success.
type NopController struct{}

func (NopController) SetPower(context.Context, bool) error { return nil }

// ServePower runs the local power listener the server relays commands to.
// It blocks until the context is cancelled.
func ServePower(ctx context.Context, addr string, ctrl PowerController) error {
	if ctrl == nil {
		ctrl = NopController{}
	}

	r := chi.NewRouter()
	r.Post("/power", func(w http.ResponseWriter, req *http.Request) {
		state := req.URL.Query().Get("state")
		if state != "on" && state != "off" {
			http.Error(w, "state must be 'on' or 'off'", http.StatusBadRequest)
			return
		}

		if err := ctrl.SetPower(req.Context(), state == "on"); err != nil {
			log.Error().Err(err).Str("state", state).Msg("power switch failed")
			http.Error(w, "power switch failed", http.StatusInternalServerError)
			return
		}
		log.Info().Str("state", state).Msg("display power switched")
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
