package handlers

import (
	"net/http"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/http/middleware"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/auth/register/
// Admin accounts need an admin bearer token.
func (h *Handlers) Register(c *gin.Context) {
	var in models.RegisterInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := h.Auth.Register(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "auth", "register", "account created")
	respondOK(c, http.StatusCreated, gin.H{"user": u, "message": "Compte créé avec succès."})
}

// POST /api/auth/login/
func (h *Handlers) Login(c *gin.Context) {
	var in models.LoginInput
	if !BindJSONOrError(c, &in) {
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// GET /api/auth/profile/ and /api/me
func (h *Handlers) Profile(c *gin.Context) {
	u, err := h.Auth.Profile(c.Request.Context(), middleware.CurrentUser(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, u)
}
