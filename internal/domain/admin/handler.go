package admin

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/framelight/framelight/internal/pkg/response"
	"github.com/framelight/framelight/internal/pkg/validator"
)

// LoginRequest is the dashboard login body.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Handler authenticates dashboard sessions. There is a single admin
// account configured through a bcrypt hash in the environment.
type Handler struct {
	jwtService   *JWTService
	passwordHash string
}

func NewHandler(jwtService *JWTService, passwordHash string) *Handler {
	return &Handler{jwtService: jwtService, passwordHash: passwordHash}
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		log.Warn().Str("remote", r.RemoteAddr).Msg("failed admin login")
		response.Unauthorized(w, "Invalid password")
		return
	}

	token, err := h.jwtService.GenerateToken()
	if err != nil {
		log.Error().Err(err).Msg("issue admin token")
		response.InternalError(w)
		return
	}
	response.OK(w, LoginResponse{Token: token})
}
