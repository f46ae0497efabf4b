package handlers

import (
	"net/http"

	"frenchdriver/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GET /api/drivers/
func (h *Handlers) ListDrivers(c *gin.Context) {
	list, err := h.Drivers.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// POST /api/drivers/create/
func (h *Handlers) CreateDriver(c *gin.Context) {
	var in models.DriverInput
	if !BindJSONOrError(c, &in) {
		return
	}
	d, err := h.Drivers.Create(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, d)
}
