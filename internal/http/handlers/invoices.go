package handlers

import (
	"net/http"

	"frenchdriver/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/invoices/:booking_id/
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := pathID(c, "booking_id")
	if !ok {
		return
	}
	inv, err := h.Invoices.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, inv)
}

// GET /api/invoices/:booking_id/pdf returns the invoice inline.
func (h *Handlers) InvoicePDF(c *gin.Context) {
	id, ok := pathID(c, "booking_id")
	if !ok {
		return
	}
	data, filename, err := h.Invoices.PDF(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
