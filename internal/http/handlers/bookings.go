package handlers

import (
	"net/http"
	"strings"

	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/http/middleware"
	"frenchdriver/internal/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/bookings/estimate/
func (h *Handlers) Estimate(c *gin.Context) {
	var in models.EstimateInput
	if !BindJSONOrError(c, &in) {
		return
	}
	est, err := h.Bookings.Estimate(in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, est)
}

// POST /api/bookings/create/
func (h *Handlers) CreateBooking(c *gin.Context) {
	var in models.CreateBookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	out, err := svc.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(svc.RequestID, "bookings", "create", "booking "+out.ConfirmationNumber+" created")
	respondOK(c, http.StatusCreated, out)
}

// GET /api/bookings/:id/
func (h *Handlers) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.Bookings.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}

// GET /api/bookings/user/:user_id/
func (h *Handlers) UserBookings(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	h.listBookings(c, userID)
}

// GET /api/me/bookings
func (h *Handlers) MyBookings(c *gin.Context) {
	h.listBookings(c, middleware.CurrentUser(c).UserID)
}

func (h *Handlers) listBookings(c *gin.Context, userID int64) {
	status := models.BookingStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	list, err := h.Bookings.ListForUser(c.Request.Context(), middleware.CurrentUser(c), userID, status, queryInt(c, "limit", 0))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}
