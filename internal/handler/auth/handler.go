package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bodyworks/scheduler-api/pkg/auth"
	"github.com/bodyworks/scheduler-api/pkg/errors"
	"github.com/bodyworks/scheduler-api/pkg/httputil"
	"github.com/bodyworks/scheduler-api/pkg/security"
)

// Handler authenticates the practice owner against the configured
// bcrypt hash and issues API tokens.
type Handler struct {
	tokens       *auth.TokenService
	hasher       security.PasswordHasher
	passwordHash string
}

func NewHandler(tokens *auth.TokenService, hasher security.PasswordHasher, passwordHash string) *Handler {
	return &Handler{
		tokens:       tokens,
		hasher:       hasher,
		passwordHash: passwordHash,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
		return
	}

	if err := h.hasher.Compare(h.passwordHash, req.Password); err != nil {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	token, err := h.tokens.Generate("owner")
	if err != nil {
		httputil.RespondWithError(c, errors.Internal(err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"token": token})
}
